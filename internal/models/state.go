package models

type StateKind string

const (
	StateNoImage StateKind = "no_image"
	StateLoading StateKind = "loading"
	StateLabeled StateKind = "labeled"
	StateSkipped StateKind = "skipped"
	StateFailed  StateKind = "failed"
)

// DisplayState is what the coordinator reports for one handle call.
type DisplayState struct {
	Kind    StateKind
	Key     ImageKey
	Verdict Verdict
	Err     error
}

func NoImage() DisplayState {
	return DisplayState{Kind: StateNoImage}
}

func Loading(key ImageKey) DisplayState {
	return DisplayState{Kind: StateLoading, Key: key}
}

func Labeled(key ImageKey, v Verdict) DisplayState {
	return DisplayState{Kind: StateLabeled, Key: key, Verdict: v}
}

func Skipped(key ImageKey) DisplayState {
	return DisplayState{Kind: StateSkipped, Key: key}
}

func Failed(key ImageKey, err error) DisplayState {
	return DisplayState{Kind: StateFailed, Key: key, Err: err}
}

// Payload is an encoded image ready to send to the classifier.
type Payload struct {
	Data        string
	Width       int
	Height      int
	ContentType string
}
