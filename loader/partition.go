package loader

import (
	"fmt"

	"github.com/aligator/fatboot"
	"github.com/aligator/fatboot/checkpoint"
	"github.com/aligator/fatboot/internal/mbr"
)

// target is a byte range of a physical device presented as a device of its own.
type target struct {
	device uint32
	// partition is the index in the partition table or -1 for the whole device.
	partition int
	start     uint64
	// sectors is 0 for the whole device, which is not bounded.
	sectors uint64
}

func (t target) String() string {
	if t.partition < 0 {
		return fmt.Sprintf("device %d", t.device)
	}
	return fmt.Sprintf("device %d partition %d", t.device, t.partition+1)
}

// PartitionMap is a fatboot.SectorReader whose devices are whole physical devices or
// their MBR partitions. Reads are shifted by the start of the partition and may not
// leave it.
//
// Every physical device and partition table is mapped only once, so the indices stay
// valid for the BlockCache lines which were filled through them.
type PartitionMap struct {
	device  fatboot.SectorReader
	targets []target

	whole      map[uint32]uint32
	partitions map[uint32][]uint32
}

func NewPartitionMap(device fatboot.SectorReader) *PartitionMap {
	return &PartitionMap{
		device:     device,
		whole:      make(map[uint32]uint32),
		partitions: make(map[uint32][]uint32),
	}
}

// AddDevice maps a whole physical device and returns its index in the map.
// A device which is mapped already keeps its index.
func (m *PartitionMap) AddDevice(device uint32) uint32 {
	if index, ok := m.whole[device]; ok {
		return index
	}
	m.targets = append(m.targets, target{device: device, partition: -1})
	index := uint32(len(m.targets) - 1)
	m.whole[device] = index
	return index
}

// AddPartitions reads the MBR of a physical device and maps every partition whose
// type may hold a FAT volume. It returns the indices of the partitions.
// Once the partition table of a device was read, later calls return the same indices
// without reading it again. Failed reads are not remembered.
func (m *PartitionMap) AddPartitions(device uint32) ([]uint32, error) {
	if added, ok := m.partitions[device]; ok {
		return added, nil
	}

	size, err := m.device.SectorSize(device)
	if err != nil {
		return nil, checkpoint.Wrap(err, fatboot.ErrDevice)
	}
	if size < mbr.Size {
		return nil, checkpoint.Wrapf(fatboot.ErrSectorSize, fatboot.ErrSectorSize, "device %d reports %d bytes", device, size)
	}

	sector := make([]byte, size)
	if err := m.device.ReadSector(device, 0, sector); err != nil {
		return nil, checkpoint.Wrapf(err, fatboot.ErrDevice, "device %d lba 0", device)
	}

	partitions, err := mbr.Parse(sector)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	var added []uint32
	for _, p := range partitions {
		if !p.Type.MayBeFAT() {
			continue
		}
		m.targets = append(m.targets, target{
			device:    device,
			partition: p.Index,
			start:     uint64(p.StartLBA),
			sectors:   uint64(p.Sectors),
		})
		added = append(added, uint32(len(m.targets)-1))
	}
	m.partitions[device] = added
	return added, nil
}

// Describe names the device or partition behind a mapped index.
func (m *PartitionMap) Describe(index uint32) string {
	if int(index) >= len(m.targets) {
		return fmt.Sprintf("unmapped %d", index)
	}
	return m.targets[index].String()
}

func (m *PartitionMap) lookup(index uint32) (target, error) {
	if int(index) >= len(m.targets) {
		return target{}, fmt.Errorf("no mapped device %d", index)
	}
	return m.targets[index], nil
}

func (m *PartitionMap) SectorSize(index uint32) (int, error) {
	t, err := m.lookup(index)
	if err != nil {
		return 0, err
	}
	return m.device.SectorSize(t.device)
}

func (m *PartitionMap) ReadSector(index uint32, lba uint64, buf []byte) error {
	t, err := m.lookup(index)
	if err != nil {
		return err
	}
	if t.sectors > 0 && lba >= t.sectors {
		return fmt.Errorf("lba %d beyond the end of %v with %d sectors", lba, t, t.sectors)
	}
	return m.device.ReadSector(t.device, t.start+lba, buf)
}
