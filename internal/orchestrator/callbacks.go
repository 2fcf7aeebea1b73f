package orchestrator

import (
	"InterviewLo/internal/api/interview"
	"InterviewLo/internal/entity"
)

// Callbacks notify the UI collaborator. They run outside the machine lock and
// must not call Machine.Close synchronously.
type Callbacks struct {
	OnStatusChange  func(sess entity.Session)
	OnTranscript    func(u entity.Utterance)
	OnSpeech        func(speaking bool)
	OnManualInput   func(prefill entity.InterviewSpec)
	OnSetupComplete func(res interview.GenerateResult)
	OnNavigate      func(path string)
	OnError         func(err error)
}

func (c Callbacks) statusChanged(sess entity.Session) {
	if c.OnStatusChange != nil {
		c.OnStatusChange(sess)
	}
}

func (c Callbacks) transcript(u entity.Utterance) {
	if c.OnTranscript != nil {
		c.OnTranscript(u)
	}
}

func (c Callbacks) speech(speaking bool) {
	if c.OnSpeech != nil {
		c.OnSpeech(speaking)
	}
}

func (c Callbacks) manualInput(prefill entity.InterviewSpec) {
	if c.OnManualInput != nil {
		c.OnManualInput(prefill)
	}
}

func (c Callbacks) setupComplete(res interview.GenerateResult) {
	if c.OnSetupComplete != nil {
		c.OnSetupComplete(res)
	}
}

func (c Callbacks) navigate(path string) {
	if c.OnNavigate != nil {
		c.OnNavigate(path)
	}
}

func (c Callbacks) failed(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

type effects []func()

func (fx *effects) add(f func()) {
	*fx = append(*fx, f)
}

func (fx effects) run() {
	for _, f := range fx {
		f()
	}
}
