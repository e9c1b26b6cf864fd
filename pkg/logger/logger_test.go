package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithContextCarriesRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.JSONFormatter{})
	log := &Logger{logger: base, fields: make(logrus.Fields)}

	ctx := context.WithValue(context.Background(), ContextKeyRequestID, "req-42")
	ctx = context.WithValue(ctx, ContextKeyUserID, "amy")
	log.WithContext(ctx).Info("booked")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v (%s)", err, buf.String())
	}
	if line["request_id"] != "req-42" || line["user_id"] != "amy" {
		t.Fatalf("context fields missing: %v", line)
	}

	buf.Reset()
	log.WithContext(context.Background()).Info("bare")
	line = nil
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := line["request_id"]; ok {
		t.Fatalf("unexpected request id: %v", line)
	}
}
