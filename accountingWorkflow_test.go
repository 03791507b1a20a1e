package main

import (
	"context"
	"testing"

	"bitbucket.org/mmdatafocus/erp_backend/config"
	"github.com/sirupsen/logrus"
)

func TestProcessWorkflowRejectsUnknownReferenceType(t *testing.T) {
	msg := config.PubSubMessage{
		ID:            1,
		BusinessId:    "biz-1",
		ReferenceType: "SomethingElse",
	}
	err := ProcessWorkflow(nil, context.Background(), logrus.New(), msg)
	if err == nil {
		t.Fatal("expected error for unknown reference type, got nil")
	}
}
