/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package custody

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"game-wallet-custody-go/internal/models"
)

// Sentinel errors for key custody operations.
var (
	// ErrKeyGeneration: the randomness source failed or the generated key
	// had an unexpected length. The whole operation should be retried.
	ErrKeyGeneration = errors.New("key generation failed")
	// ErrDecryption: authentication tag mismatch or malformed hex fields.
	// Indicates tampering or corruption; the plaintext must not be trusted.
	ErrDecryption = errors.New("decryption failed")
	// ErrRestore: the tag verified but the decrypted material has the wrong
	// shape. Indicates a format or version mismatch, not tampering.
	ErrRestore = errors.New("wallet restore failed")
)

const (
	masterKeySize = 32 // AES-256
	ivSize        = 16 // 128-bit IV per encryption
	tagSize       = 16 // 128-bit GCM authentication tag
	secretKeySize = ed25519.PrivateKeySize
)

// Vault encrypts and decrypts custodial private key material under a
// process-wide master key using AES-256-GCM.
type Vault struct {
	masterKey []byte
}

// NewVault builds a vault from a hex-encoded 256-bit master key.
func NewVault(masterKeyHex string) (*Vault, error) {
	if masterKeyHex == "" {
		return nil, fmt.Errorf("custody master key cannot be empty")
	}
	key, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("custody master key is not valid hex: %w", err)
	}
	if len(key) != masterKeySize {
		return nil, fmt.Errorf("custody master key must be %d bytes, got %d", masterKeySize, len(key))
	}
	return &Vault{masterKey: key}, nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.masterKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

// Encrypt seals a hex-encoded plaintext under the master key with a fresh
// random IV. The tag is returned separately from the ciphertext so the
// at-rest record keeps the three fields distinct.
func (v *Vault) Encrypt(plaintextHex string) (*models.EncryptedSecret, error) {
	plaintext, err := hex.DecodeString(plaintextHex)
	if err != nil {
		return nil, fmt.Errorf("plaintext is not valid hex: %w", err)
	}

	aead, err := v.aead()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize cipher: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("%w: unable to generate IV: %v", ErrKeyGeneration, err)
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	boundary := len(sealed) - tagSize

	return &models.EncryptedSecret{
		Ciphertext: hex.EncodeToString(sealed[:boundary]),
		IV:         hex.EncodeToString(iv),
		Tag:        hex.EncodeToString(sealed[boundary:]),
	}, nil
}

// Decrypt verifies the authentication tag and returns the hex-encoded
// plaintext. Any malformed field or tag mismatch yields ErrDecryption.
func (v *Vault) Decrypt(secret models.EncryptedSecret) (string, error) {
	ciphertext, err := hex.DecodeString(secret.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not valid hex", ErrDecryption)
	}
	iv, err := hex.DecodeString(secret.IV)
	if err != nil {
		return "", fmt.Errorf("%w: iv is not valid hex", ErrDecryption)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", ErrDecryption, ivSize, len(iv))
	}
	tag, err := hex.DecodeString(secret.Tag)
	if err != nil {
		return "", fmt.Errorf("%w: tag is not valid hex", ErrDecryption)
	}
	if len(tag) != tagSize {
		return "", fmt.Errorf("%w: tag must be %d bytes, got %d", ErrDecryption, tagSize, len(tag))
	}

	aead, err := v.aead()
	if err != nil {
		return "", fmt.Errorf("unable to initialize cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication tag mismatch", ErrDecryption)
	}

	return hex.EncodeToString(plaintext), nil
}

// GenerateWallet creates a fresh custodial keypair and returns it together
// with its encrypted private key material.
func (v *Vault) GenerateWallet() (*Keypair, *models.EncryptedSecret, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	if len(priv) != secretKeySize {
		return nil, nil, fmt.Errorf("%w: serialized key is %d bytes, expected %d", ErrKeyGeneration, len(priv), secretKeySize)
	}

	secret, err := v.Encrypt(hex.EncodeToString(priv))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to encrypt generated key: %w", err)
	}

	return newKeypair(pub, priv), secret, nil
}

// RestoreWallet decrypts previously stored key material and reconstructs
// the custodial keypair. Tag verification happens first, inside Decrypt;
// a verified-but-misshapen payload yields ErrRestore.
func (v *Vault) RestoreWallet(secret models.EncryptedSecret) (*Keypair, error) {
	plaintextHex, err := v.Decrypt(secret)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(plaintextHex)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypted material is not valid hex", ErrRestore)
	}
	if len(raw) != secretKeySize {
		return nil, fmt.Errorf("%w: decrypted key is %d bytes, expected %d", ErrRestore, len(raw), secretKeySize)
	}

	priv := ed25519.PrivateKey(raw)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unable to derive public key", ErrRestore)
	}

	return newKeypair(pub, priv), nil
}
