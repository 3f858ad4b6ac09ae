package sqlinline

const QCreateJobRunsTable = `--sql b8997d5a-55ef-488a-bb33-ec9f92963fdd
create table if not exists job_runs (
    id                text primary key,
    page_count        integer not null,
    remove_watermark  boolean not null default false,
    status            text not null,
    images_archived   integer not null default 0,
    page_failures     integer not null default 0,
    empty_pages       integer not null default 0,
    image_failures    integer not null default 0,
    error_message     text not null default '',
    started_at        timestamptz not null default now(),
    finished_at       timestamptz
);
`

const QInsertJobRun = `--sql 875b6854-0ca3-49e0-a47e-848c16863ac3
insert into job_runs (id, page_count, remove_watermark, status)
values ($1, $2, $3, $4)
on conflict (id) do update
set page_count = excluded.page_count,
    remove_watermark = excluded.remove_watermark,
    status = excluded.status,
    images_archived = 0,
    page_failures = 0,
    empty_pages = 0,
    image_failures = 0,
    error_message = '',
    started_at = now(),
    finished_at = null
returning started_at;
`

const QFinishJobRun = `--sql 44f245f4-d5a7-4080-95bf-72f087076094
update job_runs
set status = $2,
    images_archived = $3,
    page_failures = $4,
    empty_pages = $5,
    image_failures = $6,
    error_message = $7,
    finished_at = now()
where id = $1 and finished_at is null
returning finished_at;
`

const QSelectJobRun = `--sql 2f1edefb-8760-475d-b166-6d5d392677fd
select id, page_count, remove_watermark, status, images_archived, page_failures,
       empty_pages, image_failures, error_message, started_at, finished_at
from job_runs
where id = $1;
`
