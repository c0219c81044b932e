package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/trezcool/darasa/client/kvstore"
	"github.com/trezcool/darasa/client/poll"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	logsvc "github.com/trezcool/darasa/services/logger"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8000", "API base URL")
		token   = flag.String("token", "", "JWT auth token (required)")
		role    = flag.String("role", "student", "portal role: student, teacher or admin")
		storeFl = flag.String("store", defaultStorePath(), "path of the durable client store")
	)
	flag.Parse()

	if *token == "" {
		flag.Usage()
		os.Exit(1)
	}

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "WATCH : ", log.LstdFlags),
		conf,
	)
	logger.Enable(false)

	if err := os.MkdirAll(filepath.Dir(*storeFl), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating store directory: %v\n", err)
		os.Exit(1)
	}
	store, err := kvstore.OpenBolt(*storeFl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening client store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctrl := poll.NewController(poll.Options{
		Fetcher:  poll.NewAPIFetcher(*baseURL, *token),
		Store:    store,
		Session:  kvstore.NewSessionStore(),
		Viewer:   viewerForRole(*role),
		Interval: conf.Notification.PollInterval,
		Logger:   logger,
	})

	p := tea.NewProgram(newModel(ctrl, conf.Notification.PollInterval))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "running watcher: %v\n", err)
		os.Exit(1)
	}
}

func viewerForRole(role string) user.User {
	switch role {
	case "admin":
		return user.User{Roles: user.AdminRoles}
	case "teacher":
		return user.User{Roles: user.TeacherRoles}
	default:
		return user.User{Roles: user.StudentRoles}
	}
}

func defaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "darasa", "watch.db")
}
