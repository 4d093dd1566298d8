package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRoom = `-- name: CreateRoom :one
INSERT INTO rooms (name, description)
VALUES ($1, $2)
RETURNING id, name, description
`

type CreateRoomParams struct {
	Name        string
	Description pgtype.Text
}

func (q *Queries) CreateRoom(ctx context.Context, arg CreateRoomParams) (Room, error) {
	row := q.db.QueryRow(ctx, createRoom, arg.Name, arg.Description)
	var i Room
	err := row.Scan(&i.ID, &i.Name, &i.Description)
	return i, err
}

const getRoom = `-- name: GetRoom :one
SELECT id, name, description FROM rooms
WHERE id = $1
`

func (q *Queries) GetRoom(ctx context.Context, id int64) (Room, error) {
	row := q.db.QueryRow(ctx, getRoom, id)
	var i Room
	err := row.Scan(&i.ID, &i.Name, &i.Description)
	return i, err
}

const getRoomByName = `-- name: GetRoomByName :one
SELECT id, name, description FROM rooms
WHERE name = $1
`

func (q *Queries) GetRoomByName(ctx context.Context, name string) (Room, error) {
	row := q.db.QueryRow(ctx, getRoomByName, name)
	var i Room
	err := row.Scan(&i.ID, &i.Name, &i.Description)
	return i, err
}

const listRooms = `-- name: ListRooms :many
SELECT id, name, description FROM rooms
ORDER BY id
`

func (q *Queries) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := q.db.Query(ctx, listRooms)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Room
	for rows.Next() {
		var i Room
		if err := rows.Scan(&i.ID, &i.Name, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
