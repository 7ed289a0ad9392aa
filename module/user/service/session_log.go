package service

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	usermodel "SermoProject/module/user/model"
	"SermoProject/tools/errs"
)

const sessionLogCollection = "gateway_session_log"

// SessionLog appends gateway session lifecycle events to Mongo. It is an
// observer only: callers treat failures as log-and-continue.
type SessionLog struct {
	coll *mongo.Collection
}

func NewSessionLog(db *mongo.Database) *SessionLog {
	return &SessionLog{coll: db.Collection(sessionLogCollection)}
}

func (l *SessionLog) LogSession(ctx context.Context, rec usermodel.SessionRecord) error {
	_, err := l.coll.InsertOne(ctx, rec)
	return errs.WrapMsg(err, "insert session log", "session", rec.SessionID, "event", string(rec.Event))
}
