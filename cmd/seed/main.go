// Command seed populates a Postgres-backed coinboard with demo users
// and a month of randomized observation history. It writes through the
// repository directly so finalized days can be filled in.
package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/kazuki326/coinboard/internal/adapters/repository"
	"github.com/kazuki326/coinboard/internal/database"
	"github.com/kazuki326/coinboard/internal/domain/clock"
	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/pkg/logger"
)

const defaultTimeout = 60 * time.Second

type profile struct {
	name        string
	baseCoins   int
	dailyGrowth int
	variance    int
}

// Demo profiles mirror a small friend group with different growth rates.
var profiles = []profile{
	{name: "alice", baseCoins: 500000, dailyGrowth: 50000, variance: 20000},
	{name: "bob", baseCoins: 300000, dailyGrowth: 30000, variance: 15000},
	{name: "carol", baseCoins: 800000, dailyGrowth: 80000, variance: 30000},
	{name: "dave", baseCoins: 450000, dailyGrowth: 45000, variance: 18000},
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("COINBOARD_DATABASE_URL"), "Postgres connection string")
		timezone    = flag.String("timezone", "Asia/Tokyo", "IANA zone used to determine today")
		days        = flag.Int("days", 30, "Number of past days to fill")
		sparse      = flag.Bool("sparse", false, "Skip roughly a third of days to exercise carry-forward")
		seed        = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if *databaseURL == "" {
		log.Error(ctx, "database-url is required; the in-memory store cannot be seeded out of process")
		os.Exit(1)
	}
	if *days < 1 {
		log.Error(ctx, "days must be positive", logger.Int("days", *days))
		os.Exit(1)
	}

	policy, err := clock.New(*timezone)
	if err != nil {
		log.Error(ctx, "invalid timezone", logger.Error(err))
		os.Exit(1)
	}

	if err := database.RunMigrations(*databaseURL); err != nil {
		log.Error(ctx, "migrations failed", logger.Error(err))
		os.Exit(1)
	}
	db, err := database.Open(*databaseURL)
	if err != nil {
		log.Error(ctx, "database open failed", logger.Error(err))
		os.Exit(1)
	}
	store := repository.NewPostgresStore(db)
	defer func() { _ = store.Close() }()

	rng := rand.New(rand.NewSource(*seed))
	today := policy.CurrentDate()

	for _, p := range profiles {
		user, err := store.RegisterUser(ctx, p.name)
		if errors.Is(err, repository.ErrNameTaken) {
			user, err = findUser(ctx, store, p.name)
		}
		if err != nil {
			log.Error(ctx, "user setup failed", logger.String("name", p.name), logger.Error(err))
			os.Exit(1)
		}

		coins := p.baseCoins
		written := 0
		for i := *days - 1; i >= 0; i-- {
			change := p.dailyGrowth + rng.Intn(2*p.variance+1) - p.variance
			coins += change
			if coins < 0 {
				coins = 0
			}
			if *sparse && i > 0 && rng.Intn(3) == 0 {
				continue
			}
			obs := model.Observation{UserID: user.ID, Date: today.AddDays(-i), Value: coins}
			if err := store.PutObservation(ctx, obs); err != nil {
				log.Error(ctx, "observation write failed", logger.String("name", p.name), logger.Error(err))
				os.Exit(1)
			}
			written++
		}

		log.Info(ctx, "seeded user",
			logger.String("name", p.name),
			logger.String("id", user.ID),
			logger.Int("records", written),
			logger.Int("latestCoins", coins),
		)
	}

	log.Info(ctx, "seeding complete", logger.Int("users", len(profiles)), logger.Int("days", *days))
}

func findUser(ctx context.Context, store repository.Store, name string) (model.User, error) {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Name == name {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}
