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
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Keypair is an in-memory custodial keypair. Address is the base58 encoding
// of the ed25519 public key.
type Keypair struct {
	Address    string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

func newKeypair(pub ed25519.PublicKey, priv ed25519.PrivateKey) *Keypair {
	return &Keypair{
		Address:    base58.Encode(pub),
		PublicKey:  pub,
		PrivateKey: priv,
	}
}

// SignMessage signs an arbitrary message with the custodial private key and
// returns the base58-encoded signature.
func (k *Keypair) SignMessage(message []byte) ([]byte, error) {
	if len(k.PrivateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair has no usable private key")
	}
	return ed25519.Sign(k.PrivateKey, message), nil
}

// ValidateAddress checks that an address is well-formed: base58 text that
// decodes to a 32-byte ed25519 public key.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("address is not valid base58: %w", err)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return fmt.Errorf("address decodes to %d bytes, expected %d", len(decoded), ed25519.PublicKeySize)
	}
	return nil
}
