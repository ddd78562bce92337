//go:build race

package zeen

import "golang.org/x/crypto/bcrypt"

const passwordCost = bcrypt.DefaultCost
