package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/ebdapp/ebd/apps/api/echo"
	"github.com/ebdapp/ebd/core"
	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/inventory"
	"github.com/ebdapp/ebd/core/user"
	"github.com/ebdapp/ebd/jobs"
	emailsvc "github.com/ebdapp/ebd/services/email"
	logsvc "github.com/ebdapp/ebd/services/logger"
	"github.com/ebdapp/ebd/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		&core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(database.NewUserRepository(db), mailSvc)
	classSvc := class.NewService(database.NewClassRepository(db))
	invSvc := inventory.NewService(database.NewInventoryRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// seed the built-in general secretary account
	if _, err = usrSvc.EnsureGeneralSecretary(
		core.Conf.GeneralSecretaryUsername,
		core.Conf.GeneralSecretaryPassword,
		core.Conf.GeneralSecretaryName,
	); err != nil {
		logger.Fatal(fmt.Sprintf("seeding general secretary: %v", err), err)
	}

	// =========================================================================
	// Start Background Jobs

	jobsCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	runner := jobs.New(jobsCtx)
	runner.Every(core.Conf.InventoryCheckInterval, "inventory_reset_check", func(context.Context) error {
		_, err := invSvc.CheckAndReset()
		return err
	})

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Address:      core.Conf.Server.Address(),
		UserSvc:      usrSvc,
		ClassSvc:     classSvc,
		InventorySvc: invSvc,
		EmailSvc:     mailSvc,
		Logger:       logger,
		Shutdown:     func() { shutdown <- syscall.SIGTERM },
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB() (db *sqlx.DB, err error) {
	if err := database.CreateIfNotExist(&core.Conf); err != nil {
		return nil, err
	}

	db, err = database.Open(&core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
