package bvh_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestBVH(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "bvh suite")
}
