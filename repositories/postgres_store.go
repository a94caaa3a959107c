package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// NewPostgresRepositories binds every repository to exec, which may be the pool or a transaction.
func NewPostgresRepositories(exec SQLExecutor) Repositories {
	return Repositories{
		Events:       NewPostgresEventRepository(exec),
		Fixtures:     NewPostgresFixtureRepository(exec),
		Matches:      NewPostgresMatchRepository(exec),
		Participants: NewPostgresParticipantRepository(exec),
		Teams:        NewPostgresTeamRepository(exec),
		Activities:   NewPostgresActivityRepository(exec),
	}
}

func (s *postgresStore) WithinTx(ctx context.Context, opts TxOptions, fn func(repos Repositories) error) (err error) {
	txOpts := &sql.TxOptions{}
	if opts.ReadOnly {
		// снимок на всё время чтения
		txOpts.Isolation = sql.LevelRepeatableRead
		txOpts.ReadOnly = true
	}
	tx, err := s.db.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(NewPostgresRepositories(tx))
}
