package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DinieMobo/TaskHero/config"
	"github.com/DinieMobo/TaskHero/handlers"
	"github.com/DinieMobo/TaskHero/logging"
	"github.com/DinieMobo/TaskHero/middleware"
	"github.com/DinieMobo/TaskHero/repositories"
	"github.com/DinieMobo/TaskHero/repositories/memory"
	"github.com/DinieMobo/TaskHero/services"
	"github.com/DinieMobo/TaskHero/utils"
	"github.com/spf13/cobra"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "taskhero",
	Short:         "TaskHero task tracking API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logging.InitLogger(logging.Options{
			SystemName: "taskhero",
			File:       cfg.LogFile,
			Level:      cfg.LogLevel,
			Stdout:     cfg.LogStdout,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
		})
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	serve := serveCmd()
	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Logger.Errorf("Event ID: COMMAND_FAILED, Description: %v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// stores bundles the repositories a command runs against.
type stores struct {
	tasks   repositories.TaskRepository
	notices repositories.NoticeRepository
	users   repositories.UserRepository
	health  func(ctx context.Context) error
	close   func()
}

func openStores(ctx context.Context, inMemory bool) (*stores, error) {
	if inMemory {
		logging.Logger.Warn("Event ID: MEMORY_STORE, Description: Running on the in-memory store, data is lost on exit")
		m := memory.NewStore()
		return &stores{tasks: m.Tasks, notices: m.Notices, users: m.Users, close: func() {}}, nil
	}

	client, err := repositories.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDB)
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &stores{
		tasks:   repositories.NewMongoTaskRepository(db),
		notices: repositories.NewMongoNoticeRepository(db),
		users:   repositories.NewMongoUserRepository(db),
		health: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
			}
		},
	}, nil
}

func newUserService(st *stores) (*services.UserService, error) {
	var blacklist services.PasswordBlacklist
	if cfg.PasswordBlacklistFile != "" {
		loaded, err := services.LoadBlackList(cfg.PasswordBlacklistFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load password blacklist: %w", err)
		}
		blacklist = loaded
		logging.Logger.Infof("Event ID: BLACKLIST_LOADED, Description: %d blacklisted passwords loaded", len(blacklist))
	}

	var mailer utils.EmailSender
	if cfg.ResendAPIKey == "" {
		logging.Logger.Warn("Event ID: EMAIL_DISABLED, Description: RESEND_API is not set, outgoing email is discarded")
		mailer = &utils.DiscardSender{}
	} else {
		mailer = utils.NewResendSender(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.EmailFrom)
	}

	tokens := services.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	return services.NewUserService(st.users, st.tasks, tokens, mailer, services.UserServiceOptions{
		OTPTTL:        cfg.OTPTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
		Blacklist:     blacklist,
	}), nil
}

func serveCmd() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Logger.Info("Event ID: SERVICE_START, Description: Starting TaskHero API...")
			st, err := openStores(cmd.Context(), inMemory)
			if err != nil {
				return err
			}
			defer st.close()

			users, err := newUserService(st)
			if err != nil {
				return err
			}
			notices := services.NewNotificationService(st.notices, st.tasks)
			uploader := utils.NewCloudinaryUploader(cfg.CloudinaryBaseURL, cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)

			handler := handlers.NewRouter(handlers.RouterDeps{
				Tasks:         services.NewTaskService(st.tasks, st.users, notices, uploader),
				Dashboard:     services.NewDashboardService(st.tasks, st.users),
				Notifications: notices,
				Users:         users,
				AuthLimiter:   middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
				CORSOrigins:   cfg.CORSOrigins,
				SecureCookie:  cfg.CookieSecure || cfg.IsProduction(),
				Health:        st.health,
			})

			srv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				logging.Logger.Info("Event ID: SERVICE_STOP, Description: Shutting down HTTP server")
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					logging.Logger.Errorf("Event ID: SHUTDOWN_FAILED, Description: %v", err)
				}
			}()

			logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "use the in-memory store instead of MongoDB")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var name, email, password, title string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStores(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer st.close()

			users, err := newUserService(st)
			if err != nil {
				return err
			}
			user, err := users.Register(cmd.Context(), services.RegisterInput{
				Name:     name,
				Email:    email,
				Password: password,
				IsAdmin:  true,
				Role:     "Admin",
				Title:    title,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&title, "title", "Administrator", "job title")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
