package localbackend

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/store"
)

// Argon2id parameters for the vault verifier.
const (
	kdfTime     = 3
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 4
	kdfKeyLen   = 32
	saltLen     = 16
)

var (
	errIncorrect      = errors.New("incorrect master password or secret key")
	errNotInitialized = errors.New("no vault has been set up")
)

// HashCredentials derives a fresh verifier for a password and secret key.
func HashCredentials(password, secretKey string) (store.Verifier, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return store.Verifier{}, fmt.Errorf("generating salt: %w", err)
	}
	return store.Verifier{Salt: salt, Hash: deriveKey(password, secretKey, salt)}, nil
}

func deriveKey(password, secretKey string, salt []byte) []byte {
	// The secret key is length-prefixed so ("ab","c") and ("a","bc") differ
	material := fmt.Sprintf("%d:%s%s", len(password), password, secretKey)
	return argon2.IDKey([]byte(material), salt, kdfTime, kdfMemoryKB, kdfThreads, kdfKeyLen)
}

// keyStore holds the unlocked master password state and the mounted keys.
type keyStore struct {
	db *store.DB

	mu       sync.Mutex
	unlocked bool
	mounted  map[uuid.UUID]struct{}
}

func newKeyStore(db *store.DB) *keyStore {
	return &keyStore{db: db, mounted: make(map[uuid.UUID]struct{})}
}

func (k *keyStore) HasMasterPassword() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.unlocked
}

// SetMasterPassword checks the credentials against the stored verifier and,
// on a match, mounts every automount key.
func (k *keyStore) SetMasterPassword(ctx context.Context, c rpc.Credentials) error {
	v, err := k.db.Verifier(ctx)
	if errors.Is(err, store.ErrNoVerifier) {
		return errNotInitialized
	}
	if err != nil {
		return err
	}
	got := deriveKey(c.Password, c.SecretKey, v.Salt)
	if subtle.ConstantTimeCompare(got, v.Hash) != 1 {
		return errIncorrect
	}

	ids, err := k.db.AutomountKeys(ctx)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.unlocked = true
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			debug.Log(debug.BACKEND, "keys: skipping malformed key id %q", s)
			continue
		}
		k.mounted[id] = struct{}{}
	}
	debug.Log(debug.BACKEND, "keys: unlocked, %d mounted", len(k.mounted))
	return nil
}

func (k *keyStore) UnmountAll() {
	k.mu.Lock()
	k.mounted = make(map[uuid.UUID]struct{})
	k.mu.Unlock()
}

func (k *keyStore) ClearMasterPassword() {
	k.mu.Lock()
	k.unlocked = false
	k.mu.Unlock()
}

// Mounted returns the number of mounted keys.
func (k *keyStore) Mounted() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.mounted)
}
