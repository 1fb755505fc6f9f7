package quota

import "testing"

func TestDistributeRemainderGoesToFirstCountries(t *testing.T) {
	quotas := Distribute(10, []string{"A", "B", "C"})

	want := []int{4, 3, 3}
	if len(quotas) != len(want) {
		t.Fatalf("quota count = %d, want %d", len(quotas), len(want))
	}
	for i, q := range quotas {
		if q.Target != want[i] {
			t.Errorf("quota[%d] (%s) = %d, want %d", i, q.Country, q.Target, want[i])
		}
	}
}

func TestDistributeSumInvariant(t *testing.T) {
	countries := []string{"US", "GB", "DE", "CA", "AU"}

	for total := 1; total <= 40; total++ {
		quotas := Distribute(total, countries)

		sum := 0
		bumped := 0
		for _, q := range quotas {
			if q.Target < 1 {
				t.Fatalf("total=%d: country %s got target %d", total, q.Country, q.Target)
			}
			sum += q.Target
			if q.Target > total/len(countries) && total >= len(countries) {
				bumped++
			}
		}

		wantSum := total
		if total < len(countries) {
			wantSum = len(countries)
		}
		if sum != wantSum {
			t.Errorf("total=%d: sum = %d, want %d", total, sum, wantSum)
		}
		if total >= len(countries) && bumped != total%len(countries) {
			t.Errorf("total=%d: %d countries got base+1, want %d", total, bumped, total%len(countries))
		}
	}
}

func TestDistributeEveryCountryGetsOneWhenTotalIsSmall(t *testing.T) {
	quotas := Distribute(2, []string{"A", "B", "C", "D"})
	for _, q := range quotas {
		if q.Target != 1 {
			t.Fatalf("country %s target = %d, want 1", q.Country, q.Target)
		}
	}
}

func TestDistributeRejectsEmptyInput(t *testing.T) {
	if got := Distribute(0, []string{"A"}); got != nil {
		t.Fatalf("Distribute(0, ...) = %v, want nil", got)
	}
	if got := Distribute(5, nil); got != nil {
		t.Fatalf("Distribute(_, nil) = %v, want nil", got)
	}
}
