package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createMessage = `-- name: CreateMessage :one
INSERT INTO messages (content, room_id, user_id, is_bot)
VALUES ($1, $2, $3, $4)
RETURNING id, content, room_id, user_id, is_bot, created_at
`

type CreateMessageParams struct {
	Content string
	RoomID  int64
	UserID  pgtype.Int8
	IsBot   bool
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error) {
	row := q.db.QueryRow(ctx, createMessage,
		arg.Content,
		arg.RoomID,
		arg.UserID,
		arg.IsBot,
	)
	var i Message
	err := row.Scan(
		&i.ID,
		&i.Content,
		&i.RoomID,
		&i.UserID,
		&i.IsBot,
		&i.CreatedAt,
	)
	return i, err
}

// The inner query picks the newest rows; the outer one returns them oldest
// first.
const listRoomMessages = `-- name: ListRoomMessages :many
SELECT id, content, room_id, user_id, is_bot, created_at, author_id, author_username
FROM (
    SELECT m.id, m.content, m.room_id, m.user_id, m.is_bot, m.created_at,
           u.id AS author_id, u.username AS author_username
    FROM messages m
    LEFT JOIN users u ON u.id = m.user_id
    WHERE m.room_id = $1
    ORDER BY m.created_at DESC, m.id DESC
    LIMIT $2
) recent
ORDER BY created_at ASC, id ASC
`

type ListRoomMessagesParams struct {
	RoomID int64
	Limit  int32
}

type ListRoomMessagesRow struct {
	ID             int64
	Content        string
	RoomID         int64
	UserID         pgtype.Int8
	IsBot          bool
	CreatedAt      pgtype.Timestamptz
	AuthorID       pgtype.Int8
	AuthorUsername pgtype.Text
}

func (q *Queries) ListRoomMessages(ctx context.Context, arg ListRoomMessagesParams) ([]ListRoomMessagesRow, error) {
	rows, err := q.db.Query(ctx, listRoomMessages, arg.RoomID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRoomMessagesRow
	for rows.Next() {
		var i ListRoomMessagesRow
		if err := rows.Scan(
			&i.ID,
			&i.Content,
			&i.RoomID,
			&i.UserID,
			&i.IsBot,
			&i.CreatedAt,
			&i.AuthorID,
			&i.AuthorUsername,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
