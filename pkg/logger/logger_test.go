package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)
			defer func() { _ = Sync() }()

			Convey("Then Get should return a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a json logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat(FormatJSON), WithOutput(&buf)), ShouldBeNil)

		Convey("When logging with a request id in context", func() {
			ctx := WithRequestID(context.Background(), "req-1")
			Named("assess").Info(ctx, "scored", Float64("probability", 0.55), Bool("favorable", true))

			var entry map[string]interface{}
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)

			Convey("Then the entry should carry fields, logger name and request id", func() {
				So(entry["msg"], ShouldEqual, "scored")
				So(entry["probability"], ShouldEqual, 0.55)
				So(entry["favorable"], ShouldEqual, true)
				So(entry["logger"], ShouldEqual, "assess")
				So(entry["request_id"], ShouldEqual, "req-1")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised above info", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")

			Convey("Then info entries should be dropped", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}

func TestRequestIDFrom(t *testing.T) {
	Convey("Given contexts with and without a request id", t, func() {
		So(RequestIDFrom(context.Background()), ShouldEqual, "")
		So(RequestIDFrom(WithRequestID(context.Background(), "abc")), ShouldEqual, "abc")
	})
}
