package workers

import (
	"log"
	"sync"
)

// Dispatcher roda efeitos colaterais fire-and-forget (resposta no WhatsApp,
// write final do wa_log) fora do caminho da resposta HTTP. O Fonnte tem
// timeout de webhook e reenvia chamadas lentas — o que duplicaria reviews —
// então o handler nunca pode esperar esses sends.
type Dispatcher struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// StartDispatcher sobe um pool limitado de workers com fila em buffer.
func StartDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}

	d := &Dispatcher{tasks: make(chan func(), 64)}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for task := range d.tasks {
				runTask(task)
			}
		}()
	}
	return d
}

func runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatcher: task panic: %v", r)
		}
	}()
	task()
}

// Enqueue nunca bloqueia: fila cheia descarta a tarefa (com log). Tudo que
// passa por aqui é conveniência, não correção — quem precisa de garantia
// não usa o dispatcher.
func (d *Dispatcher) Enqueue(task func()) bool {
	select {
	case d.tasks <- task:
		return true
	default:
		log.Printf("dispatcher: queue full, dropping task")
		return false
	}
}

// Stop drena a fila e espera os workers terminarem. Útil no shutdown e nos
// testes, pra sincronizar os efeitos pendentes.
func (d *Dispatcher) Stop() {
	close(d.tasks)
	d.wg.Wait()
}
