package model

// AudioUpload is one utterance received from the client. It is held in
// memory for the duration of a single request.
type AudioUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// TranscribedText represents text produced by a transcription service.
type TranscribedText string

// Outcome reports how a pipeline reply was produced. Every outcome is
// delivered as a successful audio response; only the content differs.
type Outcome string

const (
	// OutcomeOK is a generated reply spoken back to the caller.
	OutcomeOK Outcome = "ok"
	// OutcomeNoSpeech means the transcript was empty and the no-speech
	// phrase was spoken instead.
	OutcomeNoSpeech Outcome = "no_speech"
	// OutcomeApology means generation failed and the apology was spoken.
	OutcomeApology Outcome = "apology"
	// OutcomeSilent means synthesis failed and the audio body is empty.
	OutcomeSilent Outcome = "silent"
)

// Reply is the result of a completed pipeline run.
type Reply struct {
	Audio      []byte
	Outcome    Outcome
	Transcript TranscribedText
	Text       string
}
