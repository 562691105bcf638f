// Package main seeds a database with a demo catalogue, taxonomy and setups
// for local development.
//
// It uses the same configuration as the server, so point it at the database
// you want to fill:
//
//	DB_PATH=~/Rigbook/dev.db go run ./cmd/seed
//	go run ./cmd/seed -db-driver=badger -db-path=/tmp/rigbook-badger
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/rigbook/rigbook-server/internal/di"
	"github.com/rigbook/rigbook-server/internal/di/providers"
	"github.com/rigbook/rigbook-server/internal/domain"
	domainerrors "github.com/rigbook/rigbook-server/internal/errors"
	"github.com/rigbook/rigbook-server/internal/logger"
	"github.com/rigbook/rigbook-server/internal/service"
)

type seeder struct {
	gear     *service.GearService
	taxonomy *service.TaxonomyService
	setups   *service.SetupService
	users    *service.UserService
	log      *logger.Logger
}

func main() {
	injector := di.NewContainer()
	defer injector.Shutdown()

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}

	s := &seeder{
		gear:     do.MustInvoke[*service.GearService](injector),
		taxonomy: do.MustInvoke[*service.TaxonomyService](injector),
		setups:   do.MustInvoke[*service.SetupService](injector),
		users:    do.MustInvoke[*service.UserService](injector),
		log:      do.MustInvoke[*logger.Logger](injector),
	}

	if err := s.run(context.Background()); err != nil {
		s.log.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	s.log.Info("Seeding complete")
}

func (s *seeder) run(ctx context.Context) error {
	for _, u := range []struct{ id, name string }{{"demo", "Demo Player"}, {"guest", "Guest"}} {
		if _, err := s.users.Identify(ctx, u.id, u.name); err != nil {
			return fmt.Errorf("identify %s: %w", u.id, err)
		}
	}

	rock, err := s.taxonomy.CreateGenre(ctx, service.CreateGenreRequest{Name: "Rock"})
	if err != nil {
		if domainerrors.CodeOf(err) == domainerrors.CodeConflict {
			s.log.Info("Database already seeded, nothing to do")
			return nil
		}
		return fmt.Errorf("create genre: %w", err)
	}
	band, err := s.taxonomy.CreateBand(ctx, service.CreateBandRequest{Name: "Van Halen", GenreID: rock.ID})
	if err != nil {
		return fmt.Errorf("create band: %w", err)
	}
	song, err := s.taxonomy.CreateSong(ctx, service.CreateSongRequest{Title: "Eruption", BandID: band.ID, Year: 1978})
	if err != nil {
		return fmt.Errorf("create song: %w", err)
	}

	marshall, err := s.gear.CreateBrand(ctx, service.CreateBrandRequest{Name: "Marshall", Country: "UK"})
	if err != nil {
		return fmt.Errorf("create brand: %w", err)
	}
	mxr, err := s.gear.CreateBrand(ctx, service.CreateBrandRequest{Name: "MXR", Country: "US"})
	if err != nil {
		return fmt.Errorf("create brand: %w", err)
	}

	catalogue := []service.CreateGearRequest{
		{Name: "Frankenstrat", Kind: domain.Guitar{GuitarType: "electric", NumStrings: 6, PickupConfig: "H"}},
		{BrandID: marshall.ID, Name: "1959 Super Lead", Kind: domain.Amplifier{
			AmpType: "tube", Wattage: 100, AvailableControls: []string{"presence", "bass", "middle", "treble", "volume"},
		}},
		{BrandID: mxr.ID, Name: "Phase 90", Kind: domain.Pedal{PedalType: "phaser", AvailableControls: []string{"speed"}}},
		{BrandID: mxr.ID, Name: "Flanger", Kind: domain.Pedal{
			PedalType: "flanger", AvailableControls: []string{"manual", "width", "speed", "regen"},
		}},
	}

	var owned []*domain.OwnedGear
	for _, req := range catalogue {
		gear, err := s.gear.CreateGear(ctx, req)
		if err != nil {
			return fmt.Errorf("create gear %s: %w", req.Name, err)
		}
		o, err := s.gear.TakeOwnership(ctx, "demo", service.TakeOwnershipRequest{GearID: gear.ID})
		if err != nil {
			return fmt.Errorf("own gear %s: %w", req.Name, err)
		}
		owned = append(owned, o)
	}

	setup, err := s.setups.CreateSetup(ctx, "demo", service.SetupInput{
		Name:        "Brown sound",
		Description: "Variac'd plexi, phaser before the amp",
		SongID:      song.ID,
		IsPublic:    true,
	})
	if err != nil {
		return fmt.Errorf("create setup: %w", err)
	}

	knobs := []domain.Settings{
		{"volume": domain.Int(10)},
		{"presence": domain.Int(7), "bass": domain.Int(5), "middle": domain.Number(7.5), "treble": domain.Int(8), "volume": domain.Int(10)},
		{"speed": domain.Text("slow")},
		{"manual": domain.Int(12), "speed": domain.Int(3)},
	}
	order := []int{0, 2, 3, 1} // guitar, phaser, flanger, amp
	for _, idx := range order {
		if _, err := s.setups.AddGearToSetup(ctx, "demo", setup.ID, service.AddGearInput{
			OwnedGearID: owned[idx].ID,
			Settings:    knobs[idx],
		}); err != nil {
			return fmt.Errorf("add %s to setup: %w", owned[idx].Label(), err)
		}
	}

	if _, err := s.setups.ToggleLike(ctx, "guest", setup.ID); err != nil {
		return fmt.Errorf("like setup: %w", err)
	}

	s.log.Info("Seeded demo data",
		"setup_id", setup.ID,
		"gear", len(owned),
		"song", song.Title,
	)
	return nil
}
