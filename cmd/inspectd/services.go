package main

import (
	"fmt"
	"log/slog"

	"github.com/ARTM2000/guise"
)

const exportersContainer = "exporters"

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

type Database struct {
	URL    string
	logger *slog.Logger
}

func (db *Database) Query(q string) string {
	db.logger.Debug("query", "url", db.URL, "sql", q)
	return "row-result"
}

type UserRepository struct {
	DB *Database
}

func (r *UserRepository) FindByID(id int) string {
	return r.DB.Query(fmt.Sprintf("SELECT * FROM users WHERE id = %d", id))
}

type UserService struct {
	Repo *UserRepository
}

func (s *UserService) GetUser(id int) string {
	return s.Repo.FindByID(id)
}

// Exporter renders a user record in one format.
type Exporter interface {
	Export(id int, user string) string
}

type jsonExporter struct{}

func (jsonExporter) Export(id int, user string) string {
	return fmt.Sprintf("{\"id\":%d,\"user\":%q}\n", id, user)
}

type csvExporter struct{}

func (csvExporter) Export(id int, user string) string {
	return fmt.Sprintf("id,user\n%d,%s\n", id, user)
}

// userHandler is filled in by guise.ResolveInto on every request.
type userHandler struct {
	Users *UserService
}

// ---------------------------------------------------------------------------
// Registrations
// ---------------------------------------------------------------------------

// registerServices wires the demo graph into r. Registration order does not
// matter: dependencies are resolved when a factory runs.
func registerServices(r *guise.Registry, cfg appConfig, logger *slog.Logger) {
	guise.RegisterInstance(r, guise.TypeKey[*slog.Logger](), logger)

	guise.Register(r, guise.TypeKey[*Database](), func(r *guise.Registry, _ any) (*Database, error) {
		l, err := need(r, guise.TypeKey[*slog.Logger]())
		if err != nil {
			return nil, err
		}
		return &Database{URL: cfg.databaseURL, logger: l}, nil
	}, guise.WithCaching(true), guise.WithMetadata("postgres"))

	guise.Register(r, guise.TypeKey[*UserRepository](), func(r *guise.Registry, _ any) (*UserRepository, error) {
		db, err := need(r, guise.TypeKey[*Database]())
		if err != nil {
			return nil, err
		}
		return &UserRepository{DB: db}, nil
	})

	guise.RegisterWeak(r, guise.TypeKey[*UserService](), func(r *guise.Registry, _ any) (*UserService, error) {
		repo, err := need(r, guise.TypeKey[*UserRepository]())
		if err != nil {
			return nil, err
		}
		return &UserService{Repo: repo}, nil
	})

	guise.RegisterInstance[Exporter](r, guise.NewKey[Exporter]("json", exportersContainer), jsonExporter{}, guise.WithMetadata("application/json"))
	guise.RegisterInstance[Exporter](r, guise.NewKey[Exporter]("csv", exportersContainer), csvExporter{}, guise.WithMetadata("text/csv"))

	guise.InjectKey(guise.NewInjector[*userHandler](r), guise.TypeKey[*UserService](), func(h *userHandler, s *UserService) {
		h.Users = s
	}).Register()
}

// need resolves key and reports a missing registration as an error.
func need[T any](r *guise.Registry, key guise.Key[T]) (T, error) {
	v, ok, err := guise.Resolve(r, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%s is not registered", key)
	}
	return v, nil
}
