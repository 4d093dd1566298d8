package broker

import "strconv"

// StreamName is the JetStream stream that archives chat messages. Every
// room gets its own subject under it.
const StreamName = "MESSAGES"

// SubjectAllRooms matches every room subject.
var SubjectAllRooms = StreamName + ".room.>"

// RoomSubject returns the subject messages of roomID are published on.
func RoomSubject(roomID int64) string {
	return StreamName + ".room." + strconv.FormatInt(roomID, 10)
}
