package app

import "github.com/kjkrol/gohips/pkg/survey/surveytest"

// Recording adapts a surveytest.Recorder to Backend for runs without a GPU.
type Recording struct {
	*surveytest.Recorder
}

func NewRecording() Recording {
	return Recording{Recorder: surveytest.NewRecorder()}
}

func (Recording) BeginFrame(int, int) {}

func (r Recording) EndFrame() {
	r.Recorder.EndFrame()
}
