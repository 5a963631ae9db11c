package warden

import "testing"

func TestInvokeUnknownCommand(t *testing.T) {
	StartEngine()
	defer StopEngine()
	c, err := New(DefaultConfig("invoke-unknown"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Invoke("does-not-exist", "k"); err == nil {
		t.Fatal("expected error invoking an unregistered command")
	}
}

func TestInvokeReadCommand(t *testing.T) {
	cfg := DefaultConfig("invoke-read")
	cfg.Commands = []Command{{
		Name: "double",
		Type: CommandRead,
		Execute: func(c *Cache, key string, args ...interface{}) (interface{}, error) {
			v, err := c.Get(key)
			if err != nil {
				return nil, err
			}
			return v.(int) * 2, nil
		},
	}}
	StartEngine()
	defer StopEngine()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	c.Set("n", 21, 0)
	v, err := c.Invoke("double", "n")
	if err != nil || v.(int) != 42 {
		t.Fatalf("expected (42, nil), got (%v, %v)", v, err)
	}
}

func TestInvokeWriteCommandGoesThroughTransactionQueue(t *testing.T) {
	cfg := DefaultConfig("invoke-write")
	cfg.Transactional = true
	cfg.Commands = []Command{{
		Name: "set-twice",
		Type: CommandWrite,
		Execute: func(c *Cache, key string, args ...interface{}) (interface{}, error) {
			c.set(key, args[0], 0)
			return args[0], nil
		},
	}}
	StartEngine()
	defer StopEngine()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	v, err := c.Invoke("set-twice", "k", 7)
	if err != nil || v.(int) != 7 {
		t.Fatalf("expected (7, nil), got (%v, %v)", v, err)
	}
	got, err := c.Get("k")
	if err != nil || got.(int) != 7 {
		t.Fatalf("expected stored value 7, got (%v, %v)", got, err)
	}
}
