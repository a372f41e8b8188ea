package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth/v5"
	"github.com/kestrelhq/leave-backend-go/internal/config"
	appHTTP "github.com/kestrelhq/leave-backend-go/internal/handler/http"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/database"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/notification"
	"github.com/kestrelhq/leave-backend-go/internal/repository/postgresql"
	leaveService "github.com/kestrelhq/leave-backend-go/internal/service/leave"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	employeeRepo := postgresql.NewEmployeeRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leaveSettingsRepo := postgresql.NewLeaveSettingsRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveApplicationRepo := postgresql.NewLeaveApplicationRepository(db)
	approvalLogRepo := postgresql.NewApprovalLogRepository(db)
	leaveRecallRepo := postgresql.NewLeaveRecallRepository(db)
	unpaidUsageRepo := postgresql.NewUnpaidUsageRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)

	tx := leaveService.Transactor(func(ctx context.Context, fn func(ctx context.Context) error) error {
		return postgresql.WithTransaction(ctx, db, fn)
	})

	var notifier notification.Notifier
	if cfg.SMTP.Enabled {
		notifier = notification.NewSMTPNotifier(cfg.SMTP)
	} else {
		notifier = notification.NewLogNotifier()
	}

	registrySvc := leaveService.NewRegistryService(leaveTypeRepo, leaveSettingsRepo)
	balanceSvc := leaveService.NewBalanceService(tx, leaveBalanceRepo, leaveTypeRepo, leaveSettingsRepo, employeeRepo)
	applicationSvc := leaveService.NewApplicationService(tx, leaveApplicationRepo, approvalLogRepo,
		unpaidUsageRepo, holidayRepo, leaveTypeRepo, leaveSettingsRepo, employeeRepo,
		balanceSvc, notifier, logger)
	recallSvc := leaveService.NewRecallService(tx, leaveRecallRepo, leaveApplicationRepo,
		leaveTypeRepo, leaveSettingsRepo, holidayRepo, employeeRepo, balanceSvc, notifier, logger)
	encashmentSvc := leaveService.NewEncashmentService(balanceSvc, leaveTypeRepo, leaveSettingsRepo, employeeRepo)

	leaveHandler := appHTTP.NewLeaveHandler(registrySvc, balanceSvc, applicationSvc, recallSvc, encashmentSvc)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)
	router := appHTTP.NewRouter(tokenAuth, cfg.App.Env, leaveHandler)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "addr", addr, "env", cfg.App.Env)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server stopped", "error", err)
	}
}
