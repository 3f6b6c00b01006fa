package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"

	"portsim.ai/internal/sim/agents"
	"portsim.ai/internal/sim/model"
)

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, uint64(w.sinceArrival))
	digestWriteU64(h, &tmp, uint64(w.gen.Generated()))
	w.digestSlots(h, &tmp)
	w.digestAgents(h, &tmp)
	w.digestLead(h, &tmp)

	// The report is sorted, so its JSON encoding is canonical.
	if b, err := json.Marshal(w.stats.Report()); err == nil {
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestSlots(h hashWriter, tmp *[8]byte) {
	for _, sl := range w.slots.All() {
		c := sl.Container
		if c == nil {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		digestWriteString(h, tmp, c.ID)
		h.Write([]byte{byte(c.ClearedByCustoms), byte(c.ClearedByPA), byte(c.State())})
		if sl.Assignee != nil {
			digestWriteString(h, tmp, sl.Assignee.ID())
		} else {
			digestWriteString(h, tmp, "")
		}
	}
	digestWriteU64(h, tmp, w.slots.RemovedTotal())
}

func (w *World) digestAgents(h hashWriter, tmp *[8]byte) {
	for _, a := range w.customs {
		digestAgent(h, tmp, a, a.Container())
		h.Write([]byte{boolByte(a.Lazy())})
	}
	for _, o := range w.officers {
		digestAgent(h, tmp, o, o.Container())
		if p := o.Partner(); p != nil {
			digestWriteString(h, tmp, p.ID())
		} else {
			digestWriteString(h, tmp, "")
		}
	}
}

func digestAgent(h hashWriter, tmp *[8]byte, a agents.Agent, c *model.Container) {
	digestWriteString(h, tmp, a.ID())
	h.Write([]byte{byte(a.State())})
	p := a.Pos()
	digestWriteU64(h, tmp, math.Float64bits(p.X))
	digestWriteU64(h, tmp, math.Float64bits(p.Y))
	if c != nil {
		digestWriteString(h, tmp, c.ID)
	} else {
		digestWriteString(h, tmp, "")
	}
}

func (w *World) digestLead(h hashWriter, tmp *[8]byte) {
	for _, id := range w.lead.UnderInspectionIDs() {
		n, _ := w.lead.UnderInspection(id)
		digestWriteString(h, tmp, id)
		digestWriteU64(h, tmp, uint64(n))
	}
	h.Write([]byte{0xff})
	for _, id := range w.lead.CooldownIDs() {
		n, _ := w.lead.InCooldown(id)
		digestWriteString(h, tmp, id)
		digestWriteU64(h, tmp, uint64(n))
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
