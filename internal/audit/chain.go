package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const genesisInput = "crsh-genesis"

// chain is the position at the end of a hash-chained log.
type chain struct {
	seq  uint64
	head string
}

func newChain() chain {
	sum := sha256.Sum256([]byte(genesisInput))
	return chain{head: hex.EncodeToString(sum[:])}
}

// link stamps e as the entry following c.
func (c chain) link(e Entry) Entry {
	e.Seq = c.seq + 1
	e.PrevHash = c.head
	e.Hash = digest(e)
	return e
}

// check returns why e cannot follow c, or "" when it can.
func (c chain) check(e Entry) string {
	switch {
	case e.Seq != c.seq+1:
		return fmt.Sprintf("sequence gap: expected %d, got %d", c.seq+1, e.Seq)
	case e.PrevHash != c.head:
		return fmt.Sprintf("prev_hash mismatch: expected %s, got %s", short(c.head), short(e.PrevHash))
	}
	if sum := digest(e); e.Hash != sum {
		return fmt.Sprintf("hash mismatch: expected %s, got %s", short(sum), short(e.Hash))
	}
	return ""
}

func (c *chain) advance(e Entry) {
	c.seq = e.Seq
	c.head = e.Hash
}

func digest(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}

// records splits a log into its non-empty lines.
func records(data []byte) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(line) > 0 {
			out = append(out, line)
		}
	}
	return out
}
