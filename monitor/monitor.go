// Package monitor exposes a running OptTagStore over HTTP: occupancy
// statistics and per-set SC/MC classification, NVC, validity and tags
// for debugging (the count matrix itself is not served), and a CPU
// profile capture, the
// way monitoring.Monitor exposes a running simulation - adapted here
// from simulator-engine control (pause/continue/tick) to read-only
// tag-store introspection, since the tag store has no engine to pause.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"

	"github.com/sarchlab/shepherdtags/tagging"
)

// Monitor serves a read-only view of a tag store's replacement state.
type Monitor struct {
	store      *tagging.OptTagStore
	portNumber int
}

// NewMonitor creates a Monitor over store.
func NewMonitor(store *tagging.OptTagStore) *Monitor {
	return &Monitor{store: store}
}

// WithPortNumber sets the port the monitor listens on. A value below
// 1000 is rejected in favor of an OS-assigned port, matching the
// reserved-port guard the teacher's monitor applies.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"monitor: port %d is reserved, using a random port instead\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// StartServer starts the HTTP server in the background and returns
// once it is listening. openBrowser, if true, opens the server's base
// URL in the local browser; only the /api routes have handlers, so
// that URL serves no page of its own.
func (m *Monitor) StartServer(openBrowser bool) error {
	r := mux.NewRouter()

	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/sets/{id}", m.set)
	r.HandleFunc("/api/profile", m.collectProfile)

	actualPort := ":0"
	if m.portNumber >= 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return fmt.Errorf("monitor: listen: %w", err)
	}

	addr := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "monitor: serving tag-store status at %s\n", addr)

	go func() {
		if err := http.Serve(listener, r); err != nil {
			fmt.Fprintf(os.Stderr, "monitor: server stopped: %v\n", err)
		}
	}()

	if openBrowser {
		if err := browser.OpenURL(addr); err != nil {
			fmt.Fprintf(os.Stderr, "monitor: could not open browser: %v\n", err)
		}
	}

	return nil
}

type statsRsp struct {
	NumSets      int         `json:"num_sets"`
	TagsInUse    int         `json:"tags_in_use"`
	Replacements int         `json:"replacements"`
	TotalRefs    int         `json:"total_refs"`
	SampledRefs  int         `json:"sampled_refs"`
	WarmedUp     bool        `json:"warmed_up"`
	Occupancies  map[int]int `json:"occupancies"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	s, ok := m.store.Stats().(*tagging.DefaultStats)
	if !ok {
		http.Error(w, "monitor: stats endpoint requires DefaultStats", http.StatusNotImplemented)
		return
	}

	rsp := statsRsp{
		NumSets:      m.store.NumSets(),
		TagsInUse:    s.TagsInUse(),
		Replacements: s.Replacements(0),
		TotalRefs:    s.TotalRefs(),
		SampledRefs:  s.SampledRefs(),
		WarmedUp:     s.WarmedUp(),
		Occupancies:  s.Occupancies(),
	}

	writeJSON(w, rsp)
}

type setRsp struct {
	Index         int      `json:"index"`
	LeastImmSCPtr int      `json:"least_imm_sc_ptr"`
	SCFlag        []bool   `json:"sc_flag"`
	SCPtr         []int    `json:"sc_ptr"`
	NVC           []int    `json:"nvc"`
	Valid         []bool   `json:"valid"`
	Tags          []uint64 `json:"tags"`
}

func (m *Monitor) set(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]

	id, err := strconv.Atoi(idStr)
	if err != nil || id < 0 || id >= m.store.NumSets() {
		http.Error(w, "monitor: unknown set", http.StatusNotFound)
		return
	}

	set := m.store.SetAt(id)

	rsp := setRsp{
		Index:         set.Index,
		LeastImmSCPtr: set.LeastImmSCPtr,
		SCFlag:        append([]bool(nil), set.SCFlag...),
		SCPtr:         append([]int(nil), set.SCPtr...),
		NVC:           append([]int(nil), set.NVC...),
	}

	for i := range set.Blocks {
		rsp.Valid = append(rsp.Valid, set.Blocks[i].Valid)
		rsp.Tags = append(rsp.Tags, set.Blocks[i].Tag)
	}

	writeJSON(w, rsp)
}

// collectProfile captures one second of CPU profile and returns it
// decoded as JSON, purely to prove the capture parses - mirroring the
// teacher's own use of the profile package to validate, not to render,
// the samples it collects.
func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(b)
}
