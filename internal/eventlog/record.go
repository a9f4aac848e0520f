package eventlog

import (
	"encoding/xml"
	"time"
)

type Event string

const (
	EventRunStarted       Event = "run_started"
	EventDirectoryCreated Event = "directory_created"
	EventFileTransferred  Event = "file_transferred"
	EventTransferError    Event = "transfer_error"
	EventRunEnded         Event = "run_ended"
)

// Record is one entry of the daily event log. It is a value: the With
// methods return modified copies and never touch the receiver.
type Record struct {
	XMLName        xml.Name  `json:"-" xml:"Entry"`
	Timestamp      time.Time `json:"timestamp" xml:"Timestamp"`
	JobName        string    `json:"job_name" xml:"JobName"`
	Event          Event     `json:"event" xml:"Event"`
	Source         string    `json:"source" xml:"Source"`
	Destination    string    `json:"destination" xml:"Destination"`
	FileSize       int64     `json:"file_size" xml:"FileSize"`
	TransferTimeMs int64     `json:"transfer_time_ms" xml:"TransferTimeMs"`
}

func NewRecord(jobName string, ev Event, at time.Time) Record {
	return Record{Timestamp: at.UTC(), JobName: jobName, Event: ev}
}

func (r Record) WithEvent(ev Event) Record {
	r.Event = ev
	return r
}

func (r Record) WithTimestamp(at time.Time) Record {
	r.Timestamp = at.UTC()
	return r
}

func (r Record) WithPaths(src, dst string) Record {
	r.Source = src
	r.Destination = dst
	return r
}

// WithTransfer sets the size and timing of a copy. A negative elapsed time
// marks a failed transfer.
func (r Record) WithTransfer(size, elapsedMs int64) Record {
	r.FileSize = size
	r.TransferTimeMs = elapsedMs
	return r
}
