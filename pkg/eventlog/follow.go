package eventlog

import (
	"context"
	"encoding/json"
	"io"
	stdlog "log"

	"github.com/hpcloud/tail"
)

// Follow tails the log file at path and calls fn for every entry, starting
// from the first line. The file does not need to exist yet. Follow returns
// when ctx is cancelled.
func Follow(ctx context.Context, path string, fn func(Entry)) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:    stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				continue
			}
			var e Entry
			if err := json.Unmarshal([]byte(line.Text), &e); err != nil {
				continue
			}
			fn(e)
		}
	}
}
