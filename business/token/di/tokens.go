// Package di contains dependency injection tokens for the token context.
package di

import (
	"github.com/fd1az/flash-arbitrage/business/token/infra/memory"
	"github.com/fd1az/flash-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Bank = di.NewToken[*memory.Bank]("token.Bank")
)

func GetBank(c di.ServiceRegistry) *memory.Bank {
	return di.GetToken(c, Bank)
}
