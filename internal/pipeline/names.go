package pipeline

import "fmt"

// Operator names of the synchronization nodes.
const (
	SyncDomain    = "com.microsoft"
	OpWaitEvent   = "WaitEvent"
	OpRecordEvent = "RecordEvent"
)

// Suffixes applied to a value crossing a stage boundary.
const (
	suffixSync = "_sync"
	suffixRecv = "_recv"
	suffixSend = "_send"
)

// SyncName is the name a value carries between stages.
func SyncName(value string) string { return value + suffixSync }

// RecvName is the intermediate name of a received value between the data
// wait and the pipeline wait.
func RecvName(value string) string { return value + suffixRecv }

// SendName is the intermediate name of a published value between the
// pipeline record and the data record.
func SendName(value string) string { return value + suffixSend }

// WaitDataInput names the event input of the data wait of a segment.
func WaitDataInput(stage int, dir Direction) string {
	return eventInput("wait_data", stage, dir)
}

// WaitPipelineInput names the event input of the pipeline wait of a segment.
func WaitPipelineInput(stage int, dir Direction) string {
	return eventInput("wait_pipeline", stage, dir)
}

// RecordPipelineInput names the event input of the pipeline record of a segment.
func RecordPipelineInput(stage int, dir Direction) string {
	return eventInput("record_pipeline", stage, dir)
}

// RecordDataInput names the event input of the data record of a segment.
func RecordDataInput(stage int, dir Direction) string {
	return eventInput("record_data", stage, dir)
}

func eventInput(kind string, stage int, dir Direction) string {
	return fmt.Sprintf("%s_%d_%s", kind, stage, dir.Suffix())
}
