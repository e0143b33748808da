package log

import (
	"encoding/json"
	"log"
	"time"
)

type entry struct {
	TS     string         `json:"ts"`
	Level  string         `json:"level"`
	SID    string         `json:"sid,omitempty"`
	Action string         `json:"action,omitempty"`
	Err    string         `json:"err,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

func write(level, sid, action string, err error, fields map[string]any) {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, SID: sid, Action: action, Fields: fields}
	if err != nil {
		e.Err = err.Error()
	}
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

// sid is the client session id; pass "" for events outside a session.
func Info(sid, action string, fields map[string]any)  { write("info", sid, action, nil, fields) }
func Audit(sid, action string, fields map[string]any) { write("audit", sid, action, nil, fields) }
func Security(sid, action string, fields map[string]any) {
	write("warn", sid, action, nil, fields)
}
func Error(sid, action string, err error, fields map[string]any) {
	write("error", sid, action, err, fields)
}
