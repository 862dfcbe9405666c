package rabbitmq

import (
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type declareCall struct {
	name    string
	durable bool
	args    amqp.Table
}

type fakeDeclarer struct {
	calls   []declareCall
	failFor string
}

func (f *fakeDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if name == f.failFor {
		return amqp.Queue{}, errors.New("declare refused")
	}
	f.calls = append(f.calls, declareCall{name: name, durable: durable, args: args})
	return amqp.Queue{Name: name}, nil
}

func TestDeclareTopology_QueuesAndDeadLettering(t *testing.T) {
	f := &fakeDeclarer{}
	if err := DeclareTopology(f, "doc_ingest_jobs"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if len(f.calls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(f.calls))
	}

	byName := map[string]declareCall{}
	for _, c := range f.calls {
		if !c.durable {
			t.Errorf("queue %q not durable", c.name)
		}
		byName[c.name] = c
	}

	dlq, ok := byName["doc_ingest_jobs.dlq"]
	if !ok {
		t.Fatalf("dlq not declared")
	}
	if dlq.args != nil {
		t.Errorf("dlq args = %v, want nil", dlq.args)
	}

	retry, ok := byName["doc_ingest_jobs.retry"]
	if !ok {
		t.Fatalf("retry queue not declared")
	}
	if got := retry.args["x-dead-letter-routing-key"]; got != "doc_ingest_jobs" {
		t.Errorf("retry dead-letters to %v, want main queue", got)
	}

	main, ok := byName["doc_ingest_jobs"]
	if !ok {
		t.Fatalf("main queue not declared")
	}
	if got := main.args["x-dead-letter-routing-key"]; got != "doc_ingest_jobs.dlq" {
		t.Errorf("main dead-letters to %v, want dlq", got)
	}
}

func TestDeclareTopology_PropagatesDeclareError(t *testing.T) {
	f := &fakeDeclarer{failFor: "jobs.retry"}
	if err := DeclareTopology(f, "jobs"); err == nil {
		t.Fatalf("expected error when a declaration is refused")
	}
}
