package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/id"
	"github.com/rigbook/rigbook-server/internal/store"
)

// OperationObserver receives the outcome of every setup operation.
type OperationObserver interface {
	ObserveSetupOperation(operation, outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveSetupOperation(string, string, time.Duration) {}

// SetupInput carries the user-editable fields of a setup.
type SetupInput struct {
	Name        string
	Description string
	GenreID     string
	BandID      string
	SongID      string
	IsPublic    bool
}

// AddGearInput describes a new signal chain item. A nil Order appends the
// item after the current chain; nil Settings become an empty map.
type AddGearInput struct {
	Order       *int
	Settings    domain.Settings
	OwnedGearID string
	Notes       string
}

// PublicSetupFilter narrows the community listing.
type PublicSetupFilter struct {
	GenreID string
	BandID  string
	SongID  string
	Search  string
}

// SetupService composes setups and their signal chains.
//
// Every call takes the acting user explicitly. Mutations go through the
// owner-scoped view, so a setup owned by someone else reads as NOT_FOUND
// even when it is public.
type SetupService struct {
	store    store.Store
	gear     GearOwnershipProvider
	taxonomy TaxonomyResolver
	logger   *slog.Logger
	observer OperationObserver
	chains   *keyedMutex
	now      func() time.Time
}

// NewSetupService creates a setup service. gear and taxonomy default to the
// store-backed implementations when nil.
func NewSetupService(
	st store.Store,
	gear GearOwnershipProvider,
	taxonomy TaxonomyResolver,
	logger *slog.Logger,
) *SetupService {
	if gear == nil {
		gear = NewStoreOwnership(st)
	}
	if taxonomy == nil {
		taxonomy = NewStoreTaxonomy(st)
	}
	return &SetupService{
		store:    st,
		gear:     gear,
		taxonomy: taxonomy,
		logger:   logger,
		observer: noopObserver{},
		chains:   newKeyedMutex(),
		now:      time.Now,
	}
}

// SetObserver installs an operation observer, typically the metrics
// collector.
func (s *SetupService) SetObserver(o OperationObserver) {
	if o == nil {
		o = noopObserver{}
	}
	s.observer = o
}

func (s *SetupService) observe(op string, start time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = string(domainerrors.CodeOf(*err))
	}
	s.observer.ObserveSetupOperation(op, outcome, time.Since(start))
}

// ownedSetup loads a setup through the actor's scoped view.
func ownedSetup(ctx context.Context, repos store.Repositories, actorID, setupID string) (*domain.Setup, error) {
	setup, err := repos.ScopedView(actorID).GetSetup(ctx, setupID)
	if notVisible(err) {
		return nil, domainerrors.NotFoundf("setup %s not found", setupID)
	}
	if err != nil {
		return nil, translate("get setup", err)
	}
	return setup, nil
}

// CreateSetup creates a private or public setup owned by actorID.
func (s *SetupService) CreateSetup(ctx context.Context, actorID string, in SetupInput) (_ *domain.Setup, err error) {
	defer s.observe("create_setup", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, description, err := domain.NormalizeSetupText(in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	tags, err := resolveTags(ctx, s.taxonomy, in.GenreID, in.BandID, in.SongID)
	if err != nil {
		return nil, err
	}

	setupID, err := id.Generate(id.PrefixSetup)
	if err != nil {
		return nil, fmt.Errorf("generate setup ID: %w", err)
	}

	now := s.now()
	setup := &domain.Setup{
		ID:          setupID,
		Owner:       domain.UserRef{ID: actorID},
		Name:        name,
		Description: description,
		IsPublic:    in.IsPublic,
		SavedBy:     []string{},
		LikedBy:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	setup.ApplyTags(tags)

	var created *domain.Setup
	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		if err := tx.EnsureUser(ctx, &domain.User{ID: actorID}); err != nil {
			return translate("ensure user", err)
		}
		if err := tx.CreateSetup(ctx, setup); err != nil {
			return translate("create setup", err)
		}
		created, err = ownedSetup(ctx, tx, actorID, setupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("setup created",
		"setup_id", setupID,
		"owner_id", actorID,
		"genre_id", setup.GenreID,
		"band_id", setup.BandID,
		"song_id", setup.SongID,
	)
	return created, nil
}

// UpdateSetup replaces a setup's name, description, tags and visibility.
func (s *SetupService) UpdateSetup(ctx context.Context, actorID, setupID string, in SetupInput) (_ *domain.Setup, err error) {
	defer s.observe("update_setup", time.Now(), &err)

	name, description, err := domain.NormalizeSetupText(in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	tags, err := resolveTags(ctx, s.taxonomy, in.GenreID, in.BandID, in.SongID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Setup
	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		setup, err := ownedSetup(ctx, tx, actorID, setupID)
		if err != nil {
			return err
		}
		setup.Name = name
		setup.Description = description
		setup.IsPublic = in.IsPublic
		setup.ApplyTags(tags)
		setup.UpdatedAt = s.now()
		if err := tx.UpdateSetup(ctx, setup); err != nil {
			return translate("update setup", err)
		}
		updated = setup
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("setup updated", "setup_id", setupID, "owner_id", actorID)
	return updated, nil
}

// DeleteSetup deletes a setup with its chain, saves and likes.
func (s *SetupService) DeleteSetup(ctx context.Context, actorID, setupID string) (err error) {
	defer s.observe("delete_setup", time.Now(), &err)

	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		if _, err := ownedSetup(ctx, tx, actorID, setupID); err != nil {
			return err
		}
		return translate("delete setup", tx.DeleteSetup(ctx, setupID))
	})
	if err != nil {
		return err
	}

	s.logger.Info("setup deleted", "setup_id", setupID, "owner_id", actorID)
	return nil
}

// GetSetup returns one of the actor's setups with its chain.
func (s *SetupService) GetSetup(ctx context.Context, actorID, setupID string) (*domain.Setup, error) {
	return ownedSetup(ctx, s.store, actorID, setupID)
}

// ViewSetup is the detail read: the setup must be public or owned by
// viewerID, who may be empty for an anonymous reader. Views are counted for
// everyone except the owner.
func (s *SetupService) ViewSetup(ctx context.Context, viewerID, setupID string) (_ *domain.Setup, err error) {
	defer s.observe("view_setup", time.Now(), &err)

	setup, err := s.store.VisibleTo(viewerID).GetSetup(ctx, setupID)
	if notVisible(err) {
		return nil, domainerrors.NotFoundf("setup %s not found", setupID)
	}
	if err != nil {
		return nil, translate("get setup", err)
	}

	if !setup.IsOwnedBy(viewerID) {
		views, err := s.store.IncrementSetupViews(ctx, setupID)
		if err != nil {
			return nil, translate("increment views", err)
		}
		setup.Views = views
	}
	return setup, nil
}

// IncrementViews adds one view to any setup. It performs no owner check;
// callers decide whether a read counts.
func (s *SetupService) IncrementViews(ctx context.Context, setupID string) (_ int, err error) {
	defer s.observe("increment_views", time.Now(), &err)

	views, err := s.store.IncrementSetupViews(ctx, setupID)
	if err != nil {
		return 0, translate("increment views", err)
	}
	return views, nil
}

// ToggleFavorite flips the owner's favourite flag.
func (s *SetupService) ToggleFavorite(ctx context.Context, actorID, setupID string) (_ *domain.Setup, err error) {
	defer s.observe("toggle_favorite", time.Now(), &err)

	var setup *domain.Setup
	err = s.store.WithTx(ctx, func(tx store.Repositories) error {
		setup, err = ownedSetup(ctx, tx, actorID, setupID)
		if err != nil {
			return err
		}
		setup.IsFavorite = !setup.IsFavorite
		setup.UpdatedAt = s.now()
		return translate("update setup", tx.UpdateSetup(ctx, setup))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("setup favorite toggled",
		"setup_id", setupID,
		"owner_id", actorID,
		"is_favorite", setup.IsFavorite,
	)
	return setup, nil
}

// PublishSetup makes a setup public. Publishing a public setup is a no-op.
func (s *SetupService) PublishSetup(ctx context.Context, actorID, setupID string) (_ *domain.Setup, err error) {
	defer s.observe("publish_setup", time.Now(), &err)
	return s.setPublic(ctx, actorID, setupID, true)
}

// UnpublishSetup makes a setup private again. Unpublishing a private setup
// is a no-op.
func (s *SetupService) UnpublishSetup(ctx context.Context, actorID, setupID string) (_ *domain.Setup, err error) {
	defer s.observe("unpublish_setup", time.Now(), &err)
	return s.setPublic(ctx, actorID, setupID, false)
}

func (s *SetupService) setPublic(ctx context.Context, actorID, setupID string, public bool) (*domain.Setup, error) {
	var (
		setup   *domain.Setup
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx store.Repositories) error {
		var err error
		setup, err = ownedSetup(ctx, tx, actorID, setupID)
		if err != nil || setup.IsPublic == public {
			return err
		}
		setup.IsPublic = public
		setup.UpdatedAt = s.now()
		changed = true
		return translate("update setup", tx.UpdateSetup(ctx, setup))
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("setup visibility changed",
			"setup_id", setupID,
			"owner_id", actorID,
			"is_public", public,
		)
	}
	return setup, nil
}

// ToggleSave bookmarks or un-bookmarks a setup for actorID and returns
// whether it is saved afterwards.
//
// The setup must be public or owned by the actor. Otherwise the call
// returns false without error and changes nothing.
func (s *SetupService) ToggleSave(ctx context.Context, actorID, setupID string) (_ bool, err error) {
	defer s.observe("toggle_save", time.Now(), &err)
	return s.toggleMember(ctx, actorID, setupID, "saved",
		(*domain.Setup).IsSavedBy, store.Repositories.SetSetupSaved)
}

// ToggleLike works like ToggleSave over the setup's likes.
func (s *SetupService) ToggleLike(ctx context.Context, actorID, setupID string) (_ bool, err error) {
	defer s.observe("toggle_like", time.Now(), &err)
	return s.toggleMember(ctx, actorID, setupID, "liked",
		(*domain.Setup).IsLikedBy, store.Repositories.SetSetupLiked)
}

func (s *SetupService) toggleMember(
	ctx context.Context,
	actorID, setupID, what string,
	isMember func(*domain.Setup, string) bool,
	set func(store.Repositories, context.Context, string, string, bool) error,
) (bool, error) {
	var member bool
	err := s.store.WithTx(ctx, func(tx store.Repositories) error {
		setup, err := tx.VisibleTo(actorID).GetSetup(ctx, setupID)
		if notVisible(err) {
			return nil
		}
		if err != nil {
			return translate("get setup", err)
		}
		member = !isMember(setup, actorID)
		if err := tx.EnsureUser(ctx, &domain.User{ID: actorID}); err != nil {
			return translate("ensure user", err)
		}
		return translate("set "+what, set(tx, ctx, setupID, actorID, member))
	})
	if err != nil {
		return false, err
	}

	s.logger.Debug("setup membership toggled",
		"setup_id", setupID,
		"user_id", actorID,
		what, member,
	)
	return member, nil
}

// GetStatistics summarises the actor's setups.
func (s *SetupService) GetStatistics(ctx context.Context, actorID string) (*domain.SetupStatistics, error) {
	view := s.store.ScopedView(actorID)

	total, err := view.CountSetups(ctx, store.SetupFilter{})
	if err != nil {
		return nil, translate("count setups", err)
	}
	public, err := view.CountSetups(ctx, store.SetupFilter{PublicOnly: true})
	if err != nil {
		return nil, translate("count public setups", err)
	}
	favorites, err := view.CountSetups(ctx, store.SetupFilter{FavoritesOnly: true})
	if err != nil {
		return nil, translate("count favorite setups", err)
	}

	ids, err := s.allSetupIDs(ctx, view)
	if err != nil {
		return nil, err
	}
	lengths, err := s.store.CountChainItemsBySetup(ctx, ids)
	if err != nil {
		return nil, translate("count chain items", err)
	}
	inChains := 0
	for _, n := range lengths {
		inChains += n
	}

	return &domain.SetupStatistics{
		Public:            public,
		Private:           total - public,
		Favorites:         favorites,
		TotalSetups:       total,
		TotalGearInChains: inChains,
	}, nil
}

func (s *SetupService) allSetupIDs(ctx context.Context, view store.SetupReader) ([]string, error) {
	var ids []string
	params := store.PaginationParams{Limit: 500}
	for {
		page, err := view.ListSetups(ctx, store.SetupFilter{}, params)
		if err != nil {
			return nil, translate("list setups", err)
		}
		for _, st := range page.Items {
			ids = append(ids, st.ID)
		}
		if !page.HasMore {
			return ids, nil
		}
		params.Cursor = page.NextCursor
	}
}

// ListUserSetups lists the actor's setups, favourites first then newest.
// Private setups are left out unless includePrivate is set.
func (s *SetupService) ListUserSetups(ctx context.Context, actorID string, includePrivate bool, params store.PaginationParams) (*store.PaginatedResult[*domain.Setup], error) {
	page, err := s.store.ScopedView(actorID).ListSetups(ctx, store.SetupFilter{
		PublicOnly: !includePrivate,
		Sort:       store.SortOwner,
		WithChain:  true,
	}, params)
	return page, translate("list user setups", err)
}

// ListFavorites lists the actor's favourite setups.
func (s *SetupService) ListFavorites(ctx context.Context, actorID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Setup], error) {
	page, err := s.store.ScopedView(actorID).ListSetups(ctx, store.SetupFilter{
		FavoritesOnly: true,
		Sort:          store.SortOwner,
		WithChain:     true,
	}, params)
	return page, translate("list favorite setups", err)
}

// ListPublicSetups is the community listing, most viewed first.
func (s *SetupService) ListPublicSetups(ctx context.Context, filter PublicSetupFilter, params store.PaginationParams) (*store.PaginatedResult[*domain.Setup], error) {
	page, err := s.store.PublicView().ListSetups(ctx, store.SetupFilter{
		GenreID:   filter.GenreID,
		BandID:    filter.BandID,
		SongID:    filter.SongID,
		Search:    filter.Search,
		Sort:      store.SortPopular,
		WithChain: true,
	}, params)
	return page, translate("list public setups", err)
}

// ListSavedSetups lists setups the actor saved that they can still see.
func (s *SetupService) ListSavedSetups(ctx context.Context, actorID string, params store.PaginationParams) (*store.PaginatedResult[*domain.Setup], error) {
	page, err := s.store.VisibleTo(actorID).ListSetups(ctx, store.SetupFilter{
		SavedBy:   actorID,
		Sort:      store.SortPopular,
		WithChain: true,
	}, params)
	return page, translate("list saved setups", err)
}
