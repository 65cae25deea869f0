package discovery

import (
	"log"
	"strings"

	"github.com/yoavf/as-i-was-saying/adapters"
	"github.com/yoavf/as-i-was-saying/model"
	"github.com/yoavf/as-i-was-saying/search"
)

// Identify fills in the short and full session identifiers.
func Identify(d model.SessionDescriptor, adapter adapters.Adapter) model.SessionDescriptor {
	d.SessionID = adapter.SessionID(d.Path)
	d.FullSessionID = adapter.FullSessionID(d.Path)
	return d
}

// Enrich identifies a session and reads its earliest and latest user text
// as summaries truncated to width. ok is false when the session has no
// user text, in which case it should not be listed.
func Enrich(d model.SessionDescriptor, adapter adapters.Adapter, width int) (model.SessionDescriptor, bool) {
	d = Identify(d, adapter)

	earliest, latest, err := userTextBounds(d.Path, adapter)
	if err != nil {
		log.Printf("Skipping %s session %s: %v", d.Backend, d.Path, err)
		return d, false
	}
	if latest == "" {
		return d, false
	}
	if earliest == "" {
		earliest = latest
	}

	d.LatestSummary = search.Snippet(latest, width)
	d.EarliestSummary = search.Snippet(earliest, width)
	return d, true
}

// userTextBounds returns the first and last user text of a session. Line
// based files are read forward until the first user text and then
// backward from the end down to that record, so long sessions are not
// read in full.
func userTextBounds(path string, adapter adapters.Adapter) (earliest, latest string, err error) {
	if adapter.Layout().Format == adapters.FormatDocument {
		messages, err := adapters.ReadDocument(path)
		if err != nil {
			return "", "", err
		}
		for _, message := range messages {
			if texts := userTexts(adapter.Normalize(message), false); len(texts) > 0 {
				earliest = texts[0]
				break
			}
		}
		for i := len(messages) - 1; i >= 0; i-- {
			if texts := userTexts(adapter.Normalize(messages[i]), false); len(texts) > 0 {
				latest = texts[len(texts)-1]
				break
			}
		}
		return earliest, latest, nil
	}

	var floor int64
	err = adapters.ReadRecords(path, adapters.FormatJSONL, func(record adapters.Record) bool {
		texts := userTexts(adapter.Normalize(record.Raw), true)
		if len(texts) == 0 {
			return true
		}
		earliest = texts[0]
		latest = texts[len(texts)-1]
		floor = record.End
		return false
	})
	if err != nil || earliest == "" {
		return "", "", err
	}

	_ = adapters.ReadRecordsBackward(path, floor, func(record adapters.Record) bool {
		texts := userTexts(adapter.Normalize(record.Raw), true)
		if len(texts) == 0 {
			return true
		}
		latest = texts[len(texts)-1]
		return false
	})
	return earliest, latest, nil
}

// userTexts returns the joined text of each user event. Line-based logs
// inject system context as user turns wrapped in tags; skipInjected drops
// those.
func userTexts(events []model.Event, skipInjected bool) []string {
	var texts []string
	for _, event := range events {
		if event.Role != model.RoleUser {
			continue
		}
		text := event.JoinedText()
		if text == "" {
			continue
		}
		if skipInjected && strings.HasPrefix(text, "<") {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}
