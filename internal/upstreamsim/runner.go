package upstreamsim

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/fairway/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config holds the simulator settings.
type Config struct {
	Addr         string        // Listen address
	TournamentID string        // Tournament served under /tournaments/{id}
	Players      int           // Roster size
	Holes        int           // Holes per round
	Seed         uint64        // Roster seed
	Tick         time.Duration // Time between simulated holes
	Token        string        // Required bearer token, empty disables auth
	FailRate     float64       // Share of reads answered with 503
}

// Run serves the simulator until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	log := logger.Get().Named("upstream-sim")
	t := NewTournament(cfg.TournamentID, cfg.Players, cfg.Holes, cfg.Seed)
	hub := NewHub(log.Named("hub"))
	defer hub.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(t, hub, cfg.Token, cfg.FailRate),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "serving simulated tournament",
			logger.String("addr", cfg.Addr),
			logger.String("tournament", cfg.TournamentID),
			logger.Int("players", cfg.Players),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		play(gctx, t, hub, cfg.Tick, log)
		return nil
	})
	return g.Wait()
}

// play advances the tournament on every tick and broadcasts the change.
func play(ctx context.Context, t *Tournament, hub *Hub, tick time.Duration, log logger.Logger) {
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, ok := t.Advance()
			if !ok {
				log.Info(ctx, "all rounds complete")
				return
			}
			sent := hub.Broadcast(n)
			log.Debug(ctx, "hole played", logger.String("event", string(n.Kind)), logger.Int("subscribers", sent))
		}
	}
}
