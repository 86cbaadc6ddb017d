package pipeline

import "fmt"

type State string

const (
	StateInit        State = "INIT"
	StateExtracted   State = "EXTRACTED"
	StateTransformed State = "TRANSFORMED"
	StateCSVSaved    State = "CSV_SAVED"
	StateDBConnected State = "DB_CONNECTED"
	StateDBLoaded    State = "DB_LOADED"
	StateQueried     State = "QUERIED"
	StateDone        State = "DONE"
)

// milestone log messages, in the order a successful run writes them
const (
	MsgPreliminaries = "Preliminaries complete. Initiating ETL process"
	MsgExtracted     = "Data extraction complete. Initiating Transformation process"
	MsgTransformed   = "Data transformation complete. Initiating loading process"
	MsgCSVSaved      = "Data saved to CSV file"
	MsgDBConnected   = "SQL Connection initiated."
	MsgDBLoaded      = "Data loaded to Database as table. Running the query"
	MsgComplete      = "Process Complete."
)

// StageError is returned by Run when a stage fails, State is the last state
// the run reached before the failure.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("etl stopped after %s: %s", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
