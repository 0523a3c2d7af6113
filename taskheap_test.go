package classfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskHeap_PriorityThenSubmission(t *testing.T) {
	th := taskHeap{}
	th.Push(queuedTask{priority: PriorityLow, seq: 0})
	th.Push(queuedTask{priority: PriorityHigh, seq: 1})
	th.Push(queuedTask{priority: PriorityNormal, seq: 2})
	th.Push(queuedTask{priority: PriorityHigh, seq: 3})

	order := make([]uint64, 0, 4)
	for th.Len() > 0 {
		order = append(order, th.Pop().seq)
	}
	assert.Equal(t, []uint64{1, 3, 2, 0}, order)
}

func TestTaskHeap_FIFOWithinPriority(t *testing.T) {
	th := taskHeap{}
	for i := uint64(0); i < 64; i++ {
		th.Push(queuedTask{priority: PriorityNormal, seq: i ^ 17})
	}
	last := uint64(0)
	for i := 0; th.Len() > 0; i++ {
		seq := th.Pop().seq
		if i > 0 {
			assert.Less(t, last, seq)
		}
		last = seq
	}
}
