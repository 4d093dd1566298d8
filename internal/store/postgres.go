package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/johndosdos/chatroom/internal/database"
	"github.com/johndosdos/chatroom/internal/model"
)

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	queries *database.Queries
}

// NewPostgres returns a Store using db, typically a *pgxpool.Pool.
func NewPostgres(db database.DBTX) *Postgres {
	return &Postgres{queries: database.New(db)}
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, err := p.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, notFound(err, "get user")
	}
	return toUser(u), nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := p.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return model.User{}, notFound(err, "get user by username")
	}
	return toUser(u), nil
}

func (p *Postgres) CreateUser(ctx context.Context, user model.NewUser) (model.User, error) {
	u, err := p.queries.CreateUser(ctx, database.CreateUserParams{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	})
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("store: create user: %w", err)
	}
	return toUser(u), nil
}

func (p *Postgres) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	r, err := p.queries.GetRoom(ctx, id)
	if err != nil {
		return model.Room{}, notFound(err, "get room")
	}
	return toRoom(r), nil
}

func (p *Postgres) GetRoomByName(ctx context.Context, name string) (model.Room, error) {
	r, err := p.queries.GetRoomByName(ctx, name)
	if err != nil {
		return model.Room{}, notFound(err, "get room by name")
	}
	return toRoom(r), nil
}

func (p *Postgres) GetAllRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := p.queries.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list rooms: %w", err)
	}

	rooms := make([]model.Room, 0, len(rows))
	for _, r := range rows {
		rooms = append(rooms, toRoom(r))
	}
	return rooms, nil
}

func (p *Postgres) CreateRoom(ctx context.Context, room model.NewRoom) (model.Room, error) {
	var desc pgtype.Text
	if room.Description != nil {
		desc = pgtype.Text{String: *room.Description, Valid: true}
	}

	r, err := p.queries.CreateRoom(ctx, database.CreateRoomParams{
		Name:        room.Name,
		Description: desc,
	})
	if err != nil {
		if isPgDuplicateKeyError(err) {
			return model.Room{}, ErrRoomExists
		}
		return model.Room{}, fmt.Errorf("store: create room: %w", err)
	}
	return toRoom(r), nil
}

func (p *Postgres) GetMessagesByRoom(ctx context.Context, roomID int64, limit int) ([]model.MessageWithUser, error) {
	rows, err := p.queries.ListRoomMessages(ctx, database.ListRoomMessagesParams{
		RoomID: roomID,
		Limit:  int32(historyLimit(limit)), //nolint:gosec
	})
	if err != nil {
		return nil, fmt.Errorf("store: list room messages: %w", err)
	}

	messages := make([]model.MessageWithUser, 0, len(rows))
	for _, row := range rows {
		msg := model.MessageWithUser{
			Message: model.Message{
				ID:        row.ID,
				Content:   row.Content,
				RoomID:    row.RoomID,
				UserID:    int8Ptr(row.UserID),
				IsBot:     row.IsBot,
				CreatedAt: row.CreatedAt.Time,
			},
		}
		if row.AuthorID.Valid {
			msg.User = &model.PublicUser{ID: row.AuthorID.Int64, Username: row.AuthorUsername.String}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (p *Postgres) CreateMessage(ctx context.Context, msg model.NewMessage) (model.MessageWithUser, error) {
	var userID pgtype.Int8
	if msg.UserID != nil {
		userID = pgtype.Int8{Int64: *msg.UserID, Valid: true}
	}

	m, err := p.queries.CreateMessage(ctx, database.CreateMessageParams{
		Content: msg.Content,
		RoomID:  msg.RoomID,
		UserID:  userID,
		IsBot:   msg.IsBot,
	})
	if err != nil {
		return model.MessageWithUser{}, fmt.Errorf("store: create message: %w", err)
	}

	out := model.MessageWithUser{
		Message: model.Message{
			ID:        m.ID,
			Content:   m.Content,
			RoomID:    m.RoomID,
			UserID:    int8Ptr(m.UserID),
			IsBot:     m.IsBot,
			CreatedAt: m.CreatedAt.Time,
		},
	}

	if m.UserID.Valid {
		author, err := p.queries.GetUserByID(ctx, m.UserID.Int64)
		switch {
		case err == nil:
			pub := toUser(author).Public()
			out.User = &pub
		case !errors.Is(err, pgx.ErrNoRows):
			return model.MessageWithUser{}, fmt.Errorf("store: resolve message author: %w", err)
		}
	}

	return out, nil
}

func toUser(u database.User) model.User {
	return model.User{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}
}

func toRoom(r database.Room) model.Room {
	room := model.Room{ID: r.ID, Name: r.Name}
	if r.Description.Valid {
		desc := r.Description.String
		room.Description = &desc
	}
	return room
}

func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

// isPgDuplicateKeyError checks if error is a PostgreSQL unique violation.
func isPgDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
