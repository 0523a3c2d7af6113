package classfinder

type queuedTask struct {
	priority WarmupPriority
	seq      uint64
	task     WarmupTask
}

// taskHeap is a max-heap of warmup tasks: higher priority first, earlier
// submission first within a priority.
type taskHeap []queuedTask

func (th taskHeap) Len() int {
	return len(th)
}

func (th taskHeap) before(i, j int) bool {
	if th[i].priority != th[j].priority {
		return th[i].priority > th[j].priority
	}
	return th[i].seq < th[j].seq
}

func (th taskHeap) swap(i, j int) {
	th[i], th[j] = th[j], th[i]
}

func (th *taskHeap) Push(t queuedTask) {
	*th = append(*th, t)
	th.up(th.Len() - 1)
}

func (th *taskHeap) Pop() (top queuedTask) {
	top = (*th)[0]
	n := th.Len() - 1
	th.swap(0, n)
	th.down(0, n)
	*th = (*th)[:n]
	return
}

func (th taskHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !th.before(j, i) {
			break
		}
		th.swap(i, j)
		j = i
	}
}

func (th taskHeap) down(i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && th.before(j2, j1) {
			j = j2
		}
		if !th.before(j, i) {
			break
		}
		th.swap(i, j)
		i = j
	}
}
