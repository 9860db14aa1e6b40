package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/sirupsen/logrus"
	"github.com/xaionaro-go/mediareader/cmd/mediareader/commands"
	"github.com/xaionaro-go/xlogrus"
)

func main() {
	ll := xlogrus.DefaultLogrusLogger()
	ll.Formatter.(*logrus.TextFormatter).ForceColors = true
	l := xlogrus.New(ll).WithLevel(logger.LevelTrace)
	ctx := context.Background()
	ctx = logger.CtxWithLogger(ctx, l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()

	err := commands.Root.ExecuteContext(ctx)
	if err != nil {
		logger.Panic(ctx, err)
	}
}
