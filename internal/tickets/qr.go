package tickets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/skip2/go-qrcode"
)

// QRGenerator produces the encrypted QR printed on each ticket. Venue
// scanners decrypt the payload with the shared secret and check the ticket
// in by id.
type QRGenerator struct {
	secret []byte
}

// checkInPayload is what the QR encodes. It is enough to locate the ticket
// and sanity-check it against the showing at the door.
type checkInPayload struct {
	TicketID  int64     `json:"ticket_id"`
	BillID    int64     `json:"bill_id"`
	ShowingID int64     `json:"showing_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

func NewQRGenerator(secret string) (*QRGenerator, error) {
	if secret == "" {
		return nil, errors.New("qr secret must not be empty")
	}
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}, nil
}

// Generate returns a 256x256 PNG QR whose payload is AES-encrypted.
func (q *QRGenerator) Generate(ticketID, billID, showingID int64, issuedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(checkInPayload{
		TicketID:  ticketID,
		BillID:    billID,
		ShowingID: showingID,
		IssuedAt:  issuedAt,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, q.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
