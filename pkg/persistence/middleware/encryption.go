package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
)

// Envelope markers written in place of an encrypted tree.
const (
	envelopeComponent = "Encrypted"
	envelopeProp      = "__encrypted__"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.PageStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts page trees using
// AES-GCM. Page bookkeeping (ID, title, version) stays readable.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.PageStore) ports.PageStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, page *domain.Page) error {
	plainText, err := json.Marshal(page.Root)
	if err != nil {
		return fmt.Errorf("failed to marshal page tree: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt page tree: %w", err)
	}

	envelope := *page
	envelope.Root = domain.NewNode("encrypted", domain.KindVoid, envelopeComponent)
	envelope.Root.SetProp(envelopeProp, base64.StdEncoding.EncodeToString(ciphertext))

	return m.next.Save(ctx, &envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	envelope, err := m.next.Load(ctx, pageID)
	if err != nil {
		return nil, err
	}

	var encryptedStr string
	if envelope.Root != nil && envelope.Root.Component == envelopeComponent {
		encryptedStr, _ = envelope.Root.Prop(envelopeProp).(string)
	}
	if encryptedStr == "" {
		// Fail secure: a configured key means every page must be sealed.
		return nil, errors.New("page is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt page tree: %w", err)
	}

	var root domain.Node
	if err := json.Unmarshal(plainText, &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted tree: %w", err)
	}

	page := *envelope
	page.Root = &root
	return &page, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, pageID string) error {
	return m.next.Delete(ctx, pageID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
