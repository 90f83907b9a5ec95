package flow

import "time"

// Outcome is what a write or read amounted to, as shown to the user.
type Outcome int

const (
	Failed Outcome = iota
	Saved
	Found
	Empty // The read succeeded but there was nothing to return. Not an error.
)

var StatusTextMap = map[Outcome]string{
	Failed: "failed",
	Saved:  "saved",
	Found:  "found",
	Empty:  "empty",
}

// BannerKind maps an outcome to the banner style of the UI.
var BannerKind = map[Outcome]string{
	Failed: "error",
	Saved:  "success",
	Found:  "success",
	Empty:  "info",
}

var timeNow = time.Now

func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}
