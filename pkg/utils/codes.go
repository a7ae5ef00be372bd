package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const ticketCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewMerchantReference returns a locally generated, unique order reference.
// Timestamp plus random suffix keeps references sortable while making
// collisions between concurrent order creations practically impossible; a
// unique index on the column backstops the remaining probability.
func NewMerchantReference() string {
	return fmt.Sprintf("TKT-%d-%s", time.Now().UnixMilli(), randomCode(6))
}

// NewTicketCode returns a human-shareable ticket code.
func NewTicketCode() string {
	return fmt.Sprintf("EP-%s-%s", randomCode(6), randomCode(4))
}

// QRPayload derives the scannable payload for a ticket from its code, owner,
// event and issue time. The digest binds the ticket to its purchase context
// so a payload cannot be transplanted onto another ticket.
func QRPayload(ticketCode string, ownerID, eventID uuid.UUID, issuedAt time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d",
		ticketCode, ownerID, eventID, issuedAt.UnixNano())))
	return "EPQ1:" + hex.EncodeToString(sum[:])
}

func randomCode(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(ticketCodeAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// fall back to a time-derived byte rather than panic mid-purchase.
			out[i] = ticketCodeAlphabet[time.Now().UnixNano()%int64(len(ticketCodeAlphabet))]
			continue
		}
		out[i] = ticketCodeAlphabet[idx.Int64()]
	}
	return string(out)
}
