package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"flyerflix/internal/adapter/repo"
	"flyerflix/internal/domain"
	"flyerflix/internal/infra"
	"flyerflix/internal/sqlinline"
)

func main() {
	var (
		idFlag        string
		emailFlag     string
		planFlag      string
		quotaFlag     int
		keepUsageFlag bool
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&planFlag, "plan", "ultimate", "plan to assign (free or ultimate)")
	flag.IntVar(&quotaFlag, "quota", -1, "daily download quota for the free plan (<0 keeps the default)")
	flag.BoolVar(&keepUsageFlag, "keep-usage", false, "preserve downloads_today instead of resetting to 0")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	planName := strings.TrimSpace(strings.ToLower(planFlag))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	plan, err := domain.ParseUserPlan(planName)
	if err != nil {
		exitWithError(fmt.Errorf("%w: %q", err, planFlag))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	runner := infra.NewSQLRunner(pool, logger)
	users := repo.NewUserRepository(runner)

	if userID == "" {
		lookupCtx, cancelLookup := context.WithTimeout(context.Background(), 5*time.Second)
		row := runner.QueryRow(lookupCtx, sqlinline.QSelectUserByEmail, email)
		var u domain.User
		var passwordHash string
		scanErr := row.Scan(
			&u.ID, &u.Email, &u.Name, &passwordHash, &u.AvatarURL, &u.Locale,
			&u.Role, &u.Plan, &u.MaxDownloads, &u.DownloadsToday,
			&u.LastDownloadDate, &u.WelcomeSeen,
		)
		cancelLookup()
		if scanErr != nil {
			exitWithError(fmt.Errorf("failed to load user: %w", scanErr))
		}
		userID = u.ID
	}

	maxDownloads := domain.DefaultFreeDailyDownloads
	if plan == domain.UserPlanUltimate {
		maxDownloads = 0
	}
	if quotaFlag >= 0 {
		maxDownloads = quotaFlag
	}

	updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelUpdate()
	updated, err := users.SetPlan(updateCtx, userID, plan, maxDownloads, !keepUsageFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user plan: %w", err))
	}

	fmt.Printf("User %s (%s) updated to plan %s\n", updated.ID, updated.Email, updated.Plan)
	fmt.Printf("max_downloads=%d\n", updated.MaxDownloads)
	fmt.Printf("downloads_today=%d\n", updated.DownloadsToday)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
