//go:build !race

package zeen

const passwordCost = 12
