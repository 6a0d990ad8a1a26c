package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"harvester-bot/internal/bot"
	"harvester-bot/internal/config"
	"harvester-bot/internal/game/duel"
	"harvester-bot/internal/game/roll"
	"harvester-bot/internal/game/trivia"
	"harvester-bot/internal/handler"
	"harvester-bot/internal/pkg/lock"
	"harvester-bot/internal/pkg/scheduler"
	"harvester-bot/internal/price"
	"harvester-bot/internal/relay"
	"harvester-bot/internal/repository"
	"harvester-bot/internal/service"
)

// NewRunCmd builds the command that runs the bot until SIGINT or SIGTERM.
func NewRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath)
		},
	}
}

func runBot(ctx context.Context, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pidLock, err := lock.Acquire(ctx, cfg.Lock.File)
	if err != nil {
		return err
	}
	defer func() {
		if err := pidLock.Release(); err != nil {
			log.Warn().Err(err).Msg("Failed to release lock file")
		}
	}()

	scores, closeScores, err := openScores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeScores()

	sched := scheduler.NewTimer()
	defer sched.Stop()

	telegram, err := bot.New(cfg)
	if err != nil {
		return err
	}

	coord, err := buildCoordinator(cfg, telegram.Gateway(), sched, scores)
	if err != nil {
		return err
	}
	telegram.Register(coord)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return telegram.Run(gctx)
	})
	if cfg.Price.Interval > 0 && cfg.Price.APIURL != "" {
		g.Go(func() error {
			runPriceTicker(gctx, coord, cfg.Price.Interval)
			return nil
		})
	}

	log.Info().Msg("Bot is running")
	err = g.Wait()
	log.Info().Msg("Bot stopped gracefully")
	return err
}

// buildCoordinator assembles the engines and the optional relay and picture cards.
func buildCoordinator(cfg *config.Config, gw handler.Gateway, sched scheduler.Scheduler, scores repository.ScoreRepository) (*handler.Coordinator, error) {
	notifier := handler.NewChatNotifier(gw, sched, cfg.Bot.ChatID)

	policy, err := duel.ParseDrawPolicy(cfg.Duel.DrawPolicy)
	if err != nil {
		return nil, err
	}
	duels := duel.New(duel.Config{
		Reward:     cfg.Duel.Reward,
		DrawPolicy: policy,
		DrawTTL:    cfg.Cleanup.Waiting,
	}, scores, notifier, nil)

	rolls := roll.New(roll.Config{
		Duration: cfg.Roll.Duration,
		Min:      cfg.Roll.Min,
		Max:      cfg.Roll.Max,
		Reward:   cfg.Roll.Reward,
	}, roll.Dependencies{Bracket: duels, Ledger: scores, Notifier: notifier, Scheduler: sched})

	questions, err := trivia.LoadQuestions(cfg.Trivia.Questions)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Trivia.Questions).Msg("Trivia question pool unavailable")
	} else {
		log.Info().Int("count", len(questions)).Msg("Trivia questions loaded")
	}
	quiz := trivia.New(trivia.Config{
		GraceDelay:   cfg.Trivia.GraceDelay,
		HintInterval: cfg.Trivia.HintInterval,
		WinDelay:     cfg.Trivia.WinDelay,
		TimeoutDelay: cfg.Trivia.TimeoutDelay,
		Reward:       cfg.Trivia.Reward,
		QuestionTTL:  cfg.Cleanup.Question,
		HintTTL:      cfg.Cleanup.Hint,
		NoticeTTL:    cfg.Cleanup.Warning,
	}, trivia.Dependencies{Questions: questions, Ledger: scores, Notifier: notifier, Scheduler: sched})

	deps := handler.Dependencies{
		ChatID:    cfg.Bot.ChatID,
		Gateway:   gw,
		Notifier:  notifier,
		Scheduler: sched,
		Trivia:    quiz,
		Roll:      rolls,
		Duel:      duels,
		Ranking:   service.NewRankingService(scores, service.DefaultPageSize),
		Media: handler.Media{
			PriceBackground: cfg.Price.Background,
			Morning:         cfg.Greeting.Morning,
			Night:           cfg.Greeting.Night,
		},
		TTLs: handler.TTLs{
			Command:       cfg.Cleanup.CommandDelay,
			Warning:       cfg.Cleanup.Warning,
			TriviaWarning: cfg.Cleanup.TriviaWarning,
			Waiting:       cfg.Cleanup.Waiting,
			RollResult:    cfg.Cleanup.RollResult,
			Leaderboard:   cfg.Cleanup.Leaderboard,
		},
		RecentWindow: cfg.Relay.RecentWindow,
	}

	if cfg.Relay.Webhook != "" {
		deps.Relay = relay.NewDiscord(cfg.Relay.Webhook,
			relay.WithTimeout(cfg.Relay.Timeout),
			relay.WithUsername(cfg.Relay.Username),
			relay.WithAvatarURL(cfg.Relay.AvatarURL),
		)
	} else {
		log.Info().Msg("Discord relay disabled")
	}

	if cfg.Price.APIURL != "" {
		deps.Prices = price.NewClient(cfg.Price.APIURL, cfg.Price.Coin, cfg.Price.Currency,
			price.WithClientTimeout(cfg.Price.Timeout))
	}
	cards, err := price.NewRenderer(cfg.Price.Font)
	if err != nil {
		return nil, fmt.Errorf("failed to load card font: %w", err)
	}
	deps.Cards = cards

	return handler.New(deps), nil
}

// runPriceTicker posts the price card every interval until ctx is done.
func runPriceTicker(ctx context.Context, coord *handler.Coordinator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Price ticker started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			coord.PostPrice(ctx)
		}
	}
}
