package simulator

import "testing"

func TestFixedNetworkDelay(t *testing.T) {
	loop := NewEventLoop()
	network := FixedNetwork{Latency: 3.0, Rate: 2.0}
	node1, node2 := NewNode(), NewNode()
	port1, port2 := node1.Port(loop), node2.Port(loop)

	loop.Go(func(h *Handle) {
		network.Send(h, &Message{
			Source:  port1,
			Dest:    port2,
			Message: "hi node 2",
			Size:    124.0,
		})
	})
	loop.Go(func(h *Handle) {
		msg := port2.Recv(h)
		if msg.Message != "hi node 2" {
			t.Errorf("unexpected message: %v", msg.Message)
		}
		if msg.Source != port1 {
			t.Error("unexpected source port")
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	expectedTime := 124.0/2.0 + 3.0
	if loop.Time() != expectedTime {
		t.Errorf("time should be %f but got %f", expectedTime, loop.Time())
	}
}

func TestOrderedNetworkOrder(t *testing.T) {
	loop := NewEventLoop()
	network := NewOrderedNetwork(1e3, 1.0)
	sender, receiver := NewNode().Port(loop), NewNode().Port(loop)

	loop.Go(func(h *Handle) {
		for i := 0; i < 100; i++ {
			network.Send(h, &Message{Source: sender, Dest: receiver, Message: i, Size: 8})
		}
	})
	loop.Go(func(h *Handle) {
		for i := 0; i < 100; i++ {
			if val := receiver.Recv(h).Message; val != i {
				t.Fatalf("expected %d but got %v", i, val)
			}
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
}

func TestOrderedNetworkDown(t *testing.T) {
	loop := NewEventLoop()
	network := NewOrderedNetwork(1e3, 0.1)
	sender, receiver := NewNode().Port(loop), NewNode().Port(loop)

	loop.Go(func(h *Handle) {
		network.Send(h, &Message{Source: sender, Dest: receiver, Message: "lost", Size: 8})
		network.SetDown(h, receiver.Node, true)
		if !network.IsDown(receiver.Node) {
			t.Error("node should be down")
		}
		network.Send(h, &Message{Source: sender, Dest: receiver, Message: "lost", Size: 8})
		network.SetDown(h, receiver.Node, false)
		network.Send(h, &Message{Source: sender, Dest: receiver, Message: "kept", Size: 8})
	})
	loop.Go(func(h *Handle) {
		if val := receiver.Recv(h).Message; val != "kept" {
			t.Errorf("expected kept but got %v", val)
		}
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
}
