package mnemocmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	mnemocmder "github.com/mnemohq/mnemo/cmd/mnemo"
)

var _ = Describe("NewMnemoCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := mnemocmder.NewMnemoCmd()
		Expect(cmd.Use).To(Equal("mnemo"))
	})

	It("wires all subcommands", func() {
		cmd := mnemocmder.NewMnemoCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("hook", "recall", "summarize", "topics", "serve", "config", "version"))
	})

	It("defines the global debug flag", func() {
		cmd := mnemocmder.NewMnemoCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
	})

	It("defines the config-dir override flag", func() {
		cmd := mnemocmder.NewMnemoCmd()
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
