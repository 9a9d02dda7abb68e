package main

import "fmt"

// Stage represents stage of front-end analysis flow
type Stage int

const (
	StageIdle          Stage = iota // nothing uploaded yet
	StageImageUploaded              // image is uploaded
	StageAnalyzing                  // inference is in progress
	StageResultsShown               // results are rendered
	StageFailed                     // inference failed, message is rendered
)

// Event represents user or backend action which moves the flow
type Event int

const (
	EventUpload  Event = iota // new image is uploaded
	EventAnalyze              // analysis started
	EventResults              // backend returned predictions
	EventFailure              // backend failed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "Idle"
	case StageImageUploaded:
		return "ImageUploaded"
	case StageAnalyzing:
		return "Analyzing"
	case StageResultsShown:
		return "ResultsShown"
	case StageFailed:
		return "Failed"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Next returns stage which follows given event. Uploading new image is
// allowed from any stage.
func (s Stage) Next(e Event) (Stage, error) {
	switch e {
	case EventUpload:
		return StageImageUploaded, nil
	case EventAnalyze:
		if s == StageImageUploaded {
			return StageAnalyzing, nil
		}
	case EventResults:
		if s == StageAnalyzing {
			return StageResultsShown, nil
		}
	case EventFailure:
		if s == StageAnalyzing || s == StageImageUploaded {
			return StageFailed, nil
		}
	}
	return s, fmt.Errorf("invalid event %d in stage %s", e, s)
}
