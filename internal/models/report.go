package models

import "time"

// CycleState — фаза сканирующего цикла. DONE достижим из любой фазы
// при фатальной ошибке верхнего уровня (отчёт тогда несёт частичные результаты).
type CycleState string

const (
	CycleIdle        CycleState = "IDLE"
	CycleResolving   CycleState = "RESOLVING"
	CycleFetching    CycleState = "FETCHING"
	CycleClassifying CycleState = "CLASSIFYING"
	CycleParsing     CycleState = "PARSING"
	CyclePersisting  CycleState = "PERSISTING"
	CycleDone        CycleState = "DONE"
)

// FailKind — таксономия отказов конвейера.
type FailKind string

const (
	FailConnectivity        FailKind = "CONNECTIVITY"
	FailFetchTransport      FailKind = "FETCH_TRANSPORT"
	FailFetchNoData         FailKind = "FETCH_NO_DATA"
	FailClassifierTransport FailKind = "CLASSIFIER_TRANSPORT"
	FailClassifierEmpty     FailKind = "CLASSIFIER_EMPTY"
	FailPersist             FailKind = "PERSIST_FAILURE"
)

// StoreResult — исход записи сигнала в портфель.
type StoreResult string

const (
	StoreStored           StoreResult = "STORED"
	StoreSkippedScore     StoreResult = "SKIPPED_SCORE"
	StoreSkippedAction    StoreResult = "SKIPPED_ACTION"
	StoreSkippedDuplicate StoreResult = "SKIPPED_DUPLICATE"
	StoreNone             StoreResult = ""
)

// Outcome — терминальный исход под-конвейера одного символа.
type Outcome struct {
	Symbol string      `json:"symbol"`
	OK     bool        `json:"ok"`
	LastPx float64     `json:"last_px,omitempty"`
	Signal *Signal     `json:"signal,omitempty"`
	Stored StoreResult `json:"stored,omitempty"`
	Fail   FailKind    `json:"fail,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// CycleReport — итог одного цикла. Outcomes ключуются символом,
// порядок завершения не гарантируется и не важен.
type CycleReport struct {
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	State      CycleState         `json:"state"`
	Mode       string             `json:"mode,omitempty"` // режим сессии: sandbox/live/public
	Outcomes   map[string]Outcome `json:"outcomes"`
	Err        string             `json:"err,omitempty"`
}

func NewCycleReport() *CycleReport {
	return &CycleReport{
		StartedAt: time.Now(),
		State:     CycleIdle,
		Outcomes:  make(map[string]Outcome),
	}
}

func (r *CycleReport) Finish(state CycleState) {
	r.State = state
	r.FinishedAt = time.Now()
}

// Stored — сколько сигналов реально легло в портфель за цикл.
func (r *CycleReport) StoredCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Stored == StoreStored {
			n++
		}
	}
	return n
}

func (r *CycleReport) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK {
			n++
		}
	}
	return n
}
